package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

func TestNode_VPC(t *testing.T) {
	node, err := Node("Vpc", stackplan.KindNetwork, VPC{
		CidrBlock:          "10.0.0.0/16",
		EnableDnsHostnames: true,
		EnableDnsSupport:   true,
		InstanceTenancy:    "default",
		Tags:               NameTag("demo"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Vpc", node.ID)
	assert.Equal(t, stackplan.KindNetwork, node.Kind)
	assert.Equal(t, "AWS::EC2::VPC", node.Type)
	assert.Equal(t, "10.0.0.0/16", node.Properties["CidrBlock"])
	assert.Equal(t, []any{map[string]any{"Key": "Name", "Value": "demo"}}, node.Properties["Tags"])
	assert.Empty(t, node.DependsOn)
}

func TestNode_SecurityGroupEmitsZeroPort(t *testing.T) {
	node, err := Node("SecurityGroupAlb", stackplan.KindSecurity, SecurityGroup{
		GroupName:        "demo-alb",
		GroupDescription: "Created by demo",
		VpcId:            intrinsics.RefTo("Vpc"),
		SecurityGroupIngress: []Ingress{
			TCPFromCidr("203.0.113.5/32", 0, 65535, "bastion"),
			TCPFromGroup(intrinsics.Attr("SecurityGroupEc2", "GroupId"), 2049, 2049, "nfs"),
		},
	})
	require.NoError(t, err)

	ingress := node.Properties["SecurityGroupIngress"].([]any)
	require.Len(t, ingress, 2)

	bastion := ingress[0].(map[string]any)
	assert.Equal(t, 0, bastion["FromPort"])
	assert.Equal(t, 65535, bastion["ToPort"])
	assert.Equal(t, "203.0.113.5/32", bastion["CidrIp"])
	assert.NotContains(t, bastion, "SourceSecurityGroupId")

	nfs := ingress[1].(map[string]any)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"SecurityGroupEc2", "GroupId"}}, nfs["SourceSecurityGroupId"])
	assert.Equal(t, map[string]any{"Ref": "Vpc"}, node.Properties["VpcId"])
}

func TestNode_RoleDocument(t *testing.T) {
	node, err := Node("RoleEc2", stackplan.KindIdentity, Role{
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("ec2.amazonaws.com"),
		ManagedPolicyArns:        []any{ManagedPolicy("AmazonSSMManagedInstanceCore")},
	})
	require.NoError(t, err)

	doc := node.Properties["AssumeRolePolicyDocument"].(map[string]any)
	assert.Equal(t, intrinsics.PolicyVersion, doc["Version"])
	stmt := doc["Statement"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"Service": "ec2.amazonaws.com"}, stmt["Principal"])
	assert.Equal(t, "sts:AssumeRole", stmt["Action"])

	arns := node.Properties["ManagedPolicyArns"].([]any)
	assert.Equal(t, map[string]any{"Fn::Sub": "arn:${AWS::Partition}:iam::aws:policy/AmazonSSMManagedInstanceCore"}, arns[0])
}

func TestNode_ExplicitFalse(t *testing.T) {
	node, err := Node("LaunchTemplate", stackplan.KindCompute, LaunchTemplate{
		LaunchTemplateName: "demo-lt",
		LaunchTemplateData: LaunchTemplateData{
			BlockDeviceMappings: []BlockDeviceMapping{{
				DeviceName: "/dev/xvda",
				Ebs:        &Ebs{DeleteOnTermination: Bool(true), Encrypted: Bool(false), VolumeSize: 30},
			}},
		},
	})
	require.NoError(t, err)

	data := node.Properties["LaunchTemplateData"].(map[string]any)
	mapping := data["BlockDeviceMappings"].([]any)[0].(map[string]any)
	ebs := mapping["Ebs"].(map[string]any)
	assert.Equal(t, false, ebs["Encrypted"])
	assert.Equal(t, true, ebs["DeleteOnTermination"])
	assert.Equal(t, 30, ebs["VolumeSize"])
}

func TestCacheCluster_EndpointAttribute(t *testing.T) {
	assert.Equal(t, "ConfigurationEndpoint.Address", CacheCluster{Engine: "memcached"}.EndpointAttribute())
	assert.Equal(t, "RedisEndpoint.Address", CacheCluster{Engine: "redis"}.EndpointAttribute())
}

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		resource stackplan.Resource
		expected string
	}{
		{Subnet{}, "AWS::EC2::Subnet"},
		{VPCGatewayAttachment{}, "AWS::EC2::VPCGatewayAttachment"},
		{SubnetRouteTableAssociation{}, "AWS::EC2::SubnetRouteTableAssociation"},
		{InstanceProfile{}, "AWS::IAM::InstanceProfile"},
		{MountTarget{}, "AWS::EFS::MountTarget"},
		{TaskDefinition{}, "AWS::ECS::TaskDefinition"},
		{ListenerRule{}, "AWS::ElasticLoadBalancingV2::ListenerRule"},
		{AutoScalingGroup{}, "AWS::AutoScaling::AutoScalingGroup"},
		{CacheSubnetGroup{}, "AWS::ElastiCache::SubnetGroup"},
		{Parameter{}, "AWS::SSM::Parameter"},
		{OriginAccessIdentity{}, "AWS::CloudFront::CloudFrontOriginAccessIdentity"},
		{Project{}, "AWS::CodeBuild::Project"},
		{Pipeline{}, "AWS::CodePipeline::Pipeline"},
		{EventRule{}, "AWS::Events::Rule"},
		{Permission{}, "AWS::Lambda::Permission"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

type recorder struct {
	nodes []stackplan.ResourceNode
	deps  [][]string
}

func (r *recorder) Add(node stackplan.ResourceNode, deps ...string) error {
	r.nodes = append(r.nodes, node)
	r.deps = append(r.deps, deps)
	return nil
}

func TestAdd(t *testing.T) {
	rec := &recorder{}
	err := Add(rec, "Cluster", stackplan.KindCompute, Cluster{ClusterName: "demo"}, "Vpc")
	require.NoError(t, err)

	require.Len(t, rec.nodes, 1)
	assert.Equal(t, "AWS::ECS::Cluster", rec.nodes[0].Type)
	assert.Equal(t, "demo", rec.nodes[0].Properties["ClusterName"])
	assert.Equal(t, []string{"Vpc"}, rec.deps[0])
}
