package resource

// VPC is AWS::EC2::VPC.
type VPC struct {
	CidrBlock          string `json:"CidrBlock"`
	EnableDnsHostnames bool   `json:"EnableDnsHostnames"`
	EnableDnsSupport   bool   `json:"EnableDnsSupport"`
	InstanceTenancy    string `json:"InstanceTenancy"`
	Tags               []Tag  `json:"Tags"`
}

func (VPC) ResourceType() string { return "AWS::EC2::VPC" }

// Subnet is AWS::EC2::Subnet.
type Subnet struct {
	VpcId               any    `json:"VpcId"`
	CidrBlock           string `json:"CidrBlock"`
	AvailabilityZone    string `json:"AvailabilityZone"`
	MapPublicIpOnLaunch bool   `json:"MapPublicIpOnLaunch"`
	Tags                []Tag  `json:"Tags"`
}

func (Subnet) ResourceType() string { return "AWS::EC2::Subnet" }

// InternetGateway is AWS::EC2::InternetGateway.
type InternetGateway struct {
	Tags []Tag `json:"Tags"`
}

func (InternetGateway) ResourceType() string { return "AWS::EC2::InternetGateway" }

// VPCGatewayAttachment is AWS::EC2::VPCGatewayAttachment.
type VPCGatewayAttachment struct {
	VpcId             any `json:"VpcId"`
	InternetGatewayId any `json:"InternetGatewayId"`
}

func (VPCGatewayAttachment) ResourceType() string { return "AWS::EC2::VPCGatewayAttachment" }

// RouteTable is AWS::EC2::RouteTable.
type RouteTable struct {
	VpcId any   `json:"VpcId"`
	Tags  []Tag `json:"Tags"`
}

func (RouteTable) ResourceType() string { return "AWS::EC2::RouteTable" }

// Route is AWS::EC2::Route.
type Route struct {
	RouteTableId         any    `json:"RouteTableId"`
	DestinationCidrBlock string `json:"DestinationCidrBlock"`
	GatewayId            any    `json:"GatewayId"`
}

func (Route) ResourceType() string { return "AWS::EC2::Route" }

// SubnetRouteTableAssociation is AWS::EC2::SubnetRouteTableAssociation.
type SubnetRouteTableAssociation struct {
	RouteTableId any `json:"RouteTableId"`
	SubnetId     any `json:"SubnetId"`
}

func (SubnetRouteTableAssociation) ResourceType() string {
	return "AWS::EC2::SubnetRouteTableAssociation"
}

// SecurityGroup is AWS::EC2::SecurityGroup.
type SecurityGroup struct {
	GroupName            string    `json:"GroupName"`
	GroupDescription     string    `json:"GroupDescription"`
	VpcId                any       `json:"VpcId"`
	SecurityGroupIngress []Ingress `json:"SecurityGroupIngress"`
	Tags                 []Tag     `json:"Tags"`
}

func (SecurityGroup) ResourceType() string { return "AWS::EC2::SecurityGroup" }

// Ingress is an inline security group ingress rule. Exactly one of CidrIp
// and SourceSecurityGroupId is set.
type Ingress struct {
	IpProtocol            string `json:"IpProtocol"`
	FromPort              *int   `json:"FromPort"`
	ToPort                *int   `json:"ToPort"`
	CidrIp                string `json:"CidrIp"`
	SourceSecurityGroupId any    `json:"SourceSecurityGroupId"`
	Description           string `json:"Description"`
}

// TCPFromCidr allows a TCP port range from an address block.
func TCPFromCidr(cidr string, from, to int, description string) Ingress {
	return Ingress{IpProtocol: "tcp", FromPort: Int(from), ToPort: Int(to), CidrIp: cidr, Description: description}
}

// TCPFromGroup allows a TCP port range from another security group.
func TCPFromGroup(group any, from, to int, description string) Ingress {
	return Ingress{IpProtocol: "tcp", FromPort: Int(from), ToPort: Int(to), SourceSecurityGroupId: group, Description: description}
}

// LaunchTemplate is AWS::EC2::LaunchTemplate.
type LaunchTemplate struct {
	LaunchTemplateName string             `json:"LaunchTemplateName"`
	LaunchTemplateData LaunchTemplateData `json:"LaunchTemplateData"`
}

func (LaunchTemplate) ResourceType() string { return "AWS::EC2::LaunchTemplate" }

// LaunchTemplateData holds the instance settings of a launch template.
type LaunchTemplateData struct {
	ImageId             string                  `json:"ImageId"`
	InstanceType        string                  `json:"InstanceType"`
	KeyName             string                  `json:"KeyName"`
	SecurityGroupIds    []any                   `json:"SecurityGroupIds"`
	UserData            any                     `json:"UserData"`
	IamInstanceProfile  *IamInstanceProfileSpec `json:"IamInstanceProfile"`
	BlockDeviceMappings []BlockDeviceMapping    `json:"BlockDeviceMappings"`
	TagSpecifications   []TagSpecification      `json:"TagSpecifications"`
}

// IamInstanceProfileSpec names the instance profile by ARN.
type IamInstanceProfileSpec struct {
	Arn any `json:"Arn"`
}

// BlockDeviceMapping attaches a volume to a device name.
type BlockDeviceMapping struct {
	DeviceName string `json:"DeviceName"`
	Ebs        *Ebs   `json:"Ebs"`
}

// Ebs describes an EBS volume.
type Ebs struct {
	DeleteOnTermination *bool  `json:"DeleteOnTermination"`
	Encrypted           *bool  `json:"Encrypted"`
	VolumeSize          int    `json:"VolumeSize"`
	VolumeType          string `json:"VolumeType"`
}

// TagSpecification tags resources created from a launch template.
type TagSpecification struct {
	ResourceType string `json:"ResourceType"`
	Tags         []Tag  `json:"Tags"`
}
