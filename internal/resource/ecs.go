package resource

// Cluster is AWS::ECS::Cluster.
type Cluster struct {
	ClusterName string `json:"ClusterName"`
}

func (Cluster) ResourceType() string { return "AWS::ECS::Cluster" }

// TaskDefinition is AWS::ECS::TaskDefinition.
type TaskDefinition struct {
	Family                  string                `json:"Family"`
	NetworkMode             string                `json:"NetworkMode"`
	RequiresCompatibilities []string              `json:"RequiresCompatibilities"`
	ExecutionRoleArn        any                   `json:"ExecutionRoleArn"`
	TaskRoleArn             any                   `json:"TaskRoleArn"`
	ContainerDefinitions    []ContainerDefinition `json:"ContainerDefinitions"`
	Volumes                 []Volume              `json:"Volumes"`
}

func (TaskDefinition) ResourceType() string { return "AWS::ECS::TaskDefinition" }

// ContainerDefinition is one container of a task definition.
type ContainerDefinition struct {
	Name              string            `json:"Name"`
	Image             any               `json:"Image"`
	Essential         *bool             `json:"Essential"`
	Cpu               int               `json:"Cpu"`
	Memory            int               `json:"Memory"`
	MemoryReservation int               `json:"MemoryReservation"`
	PortMappings      []PortMapping     `json:"PortMappings"`
	Environment       []KeyValuePair    `json:"Environment"`
	Secrets           []Secret          `json:"Secrets"`
	MountPoints       []MountPoint      `json:"MountPoints"`
	LogConfiguration  *LogConfiguration `json:"LogConfiguration"`
}

// PortMapping maps a container port to a host port.
type PortMapping struct {
	ContainerPort int    `json:"ContainerPort"`
	HostPort      int    `json:"HostPort"`
	Protocol      string `json:"Protocol"`
}

// KeyValuePair is a container environment variable.
type KeyValuePair struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// Secret injects a parameter store value into the container environment.
type Secret struct {
	Name      string `json:"Name"`
	ValueFrom any    `json:"ValueFrom"`
}

// MountPoint mounts a task volume into the container.
type MountPoint struct {
	SourceVolume  string `json:"SourceVolume"`
	ContainerPath string `json:"ContainerPath"`
	ReadOnly      bool   `json:"ReadOnly"`
}

// LogConfiguration selects the container log driver.
type LogConfiguration struct {
	LogDriver string         `json:"LogDriver"`
	Options   map[string]any `json:"Options"`
}

// Volume is a task volume backed by a host path.
type Volume struct {
	Name string      `json:"Name"`
	Host *HostVolume `json:"Host"`
}

// HostVolume is the host side of a bind mount.
type HostVolume struct {
	SourcePath string `json:"SourcePath"`
}

// Service is AWS::ECS::Service.
type Service struct {
	ServiceName                   string                   `json:"ServiceName"`
	Cluster                       any                      `json:"Cluster"`
	TaskDefinition                any                      `json:"TaskDefinition"`
	LaunchType                    string                   `json:"LaunchType"`
	DesiredCount                  *int                     `json:"DesiredCount"`
	HealthCheckGracePeriodSeconds int                      `json:"HealthCheckGracePeriodSeconds"`
	DeploymentConfiguration       *DeploymentConfiguration `json:"DeploymentConfiguration"`
	LoadBalancers                 []ServiceLoadBalancer    `json:"LoadBalancers"`
}

func (Service) ResourceType() string { return "AWS::ECS::Service" }

// DeploymentConfiguration bounds the number of tasks during a deployment.
type DeploymentConfiguration struct {
	MinimumHealthyPercent *int `json:"MinimumHealthyPercent"`
	MaximumPercent        *int `json:"MaximumPercent"`
}

// ServiceLoadBalancer registers a service container with a target group.
type ServiceLoadBalancer struct {
	ContainerName  string `json:"ContainerName"`
	ContainerPort  int    `json:"ContainerPort"`
	TargetGroupArn any    `json:"TargetGroupArn"`
}

// Repository is AWS::ECR::Repository.
type Repository struct {
	RepositoryName string `json:"RepositoryName"`
}

func (Repository) ResourceType() string { return "AWS::ECR::Repository" }

// LogGroup is AWS::Logs::LogGroup.
type LogGroup struct {
	LogGroupName    string `json:"LogGroupName"`
	RetentionInDays int    `json:"RetentionInDays"`
}

func (LogGroup) ResourceType() string { return "AWS::Logs::LogGroup" }
