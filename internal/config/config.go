// Package config defines the stack configuration file and its loader.
//
// A configuration is a single YAML document. Tasks, services and pipelines
// may also live one-per-file in directories named by the main document;
// those entries are loaded into separate Discovered lists and merged by the
// planner, explicit entries first.
package config

import (
	"fmt"
	"sort"
	"strings"

	stackplan "github.com/lex00/stackplan-aws-go"
)

// Defaults applied by Load when the corresponding field is unset.
const (
	DefaultVpcCidrSize    = 16
	DefaultSubnetCidrSize = 24
	DefaultInstanceType   = "t3a.small"
	DefaultStorageSize    = 30
	DefaultAuroraEngine   = "aurora-mysql"
	DefaultClusterSize    = 1
	DefaultBranch         = "master"
	DefaultNotifyCodeKey  = "notify.zip"

	// DefaultImageID resolves the recommended ECS optimised Amazon Linux 2
	// image at deploy time.
	DefaultImageID = "{{resolve:ssm:/aws/service/ecs/optimized-ami/amazon-linux-2/recommended/image_id}}"
)

// Config is the root of a stack configuration.
type Config struct {
	Name          string         `yaml:"name"`
	VPC           VPC            `yaml:"vpc"`
	Security      Security       `yaml:"security"`
	ECS           ECS            `yaml:"ecs"`
	Scaling       Scaling        `yaml:"scaling"`
	ALB           ALB            `yaml:"alb"`
	S3            S3             `yaml:"s3"`
	EFS           *EFS           `yaml:"efs,omitempty"`
	RDS           *RDS           `yaml:"rds,omitempty"`
	Cache         *Cache         `yaml:"cache,omitempty"`
	CDN           *CDN           `yaml:"cdn,omitempty"`
	CommitRepo    CommitRepo     `yaml:"commitRepo"`
	CodePipeline  CodePipeline   `yaml:"codepipeline"`
	Notifications *Notifications `yaml:"notifications,omitempty"`

	// Path is the file the configuration was loaded from.
	Path string `yaml:"-"`
}

// VPC describes the network block and its public subnets.
type VPC struct {
	Name             string   `yaml:"name"`
	BaseAddress      string   `yaml:"baseAddress"`
	CidrSize         int      `yaml:"cidrSize"`
	BaseCidrSize     int      `yaml:"baseCidrSize"`
	NumPublicSubnets int      `yaml:"numPublicSubnets"`
	Zones            []string `yaml:"zones,omitempty"`
}

// Security holds ingress and access settings.
type Security struct {
	BastionIPs []string `yaml:"bastionIps,omitempty"`
	SSLCertArn string   `yaml:"sslCertArn,omitempty"`
	KeyName    string   `yaml:"keyName,omitempty"`
}

// ECS describes the cluster, its tasks and services.
type ECS struct {
	ClusterName string    `yaml:"clusterName"`
	TasksDir    string    `yaml:"tasksDir,omitempty"`
	Tasks       []Task    `yaml:"tasks,omitempty"`
	ServicesDir string    `yaml:"servicesDir,omitempty"`
	Services    []Service `yaml:"services,omitempty"`

	DiscoveredTasks    []Task    `yaml:"-"`
	DiscoveredServices []Service `yaml:"-"`
}

// Task is a container task definition.
type Task struct {
	Name            string            `yaml:"name"`
	CreateECR       bool              `yaml:"createECR,omitempty"`
	ImageURI        string            `yaml:"imageURI,omitempty"`
	HostPort        int               `yaml:"hostPort,omitempty"`
	ContainerPort   int               `yaml:"containerPort,omitempty"`
	CPUUnits        int               `yaml:"cpuUnits,omitempty"`
	SoftMemoryLimit int               `yaml:"softMemoryLimit,omitempty"`
	HardMemoryLimit int               `yaml:"hardMemoryLimit,omitempty"`
	Variables       map[string]string `yaml:"variables,omitempty"`
	Params          map[string]string `yaml:"params,omitempty"`
	Volumes         map[string]string `yaml:"volumes,omitempty"`
	Mounts          map[string]string `yaml:"mounts,omitempty"`

	// Source is the file a discovered task was read from.
	Source string `yaml:"-"`
}

// Service runs a task behind the load balancer.
type Service struct {
	Name              string   `yaml:"name"`
	TaskNameReference string   `yaml:"taskNameReference"`
	DesiredCount      int      `yaml:"desiredCount,omitempty"`
	Hosts             []string `yaml:"hosts,omitempty"`
	ListenerPort      int      `yaml:"listenerPort,omitempty"`
	HealthCheckPath   string   `yaml:"healthCheckPath,omitempty"`

	Source string `yaml:"-"`
}

// Scaling describes the auto scaling group and its launch template.
type Scaling struct {
	Name           string         `yaml:"name,omitempty"`
	DesiredSize    int            `yaml:"desiredSize"`
	MinSize        int            `yaml:"minSize"`
	MaxSize        int            `yaml:"maxSize"`
	LaunchTemplate LaunchTemplate `yaml:"launchTemplate"`
}

// LaunchTemplate describes the container instances.
type LaunchTemplate struct {
	Name         string `yaml:"name"`
	InstanceType string `yaml:"instanceType,omitempty"`
	InstanceName string `yaml:"instanceName,omitempty"`
	StorageSize  int    `yaml:"storageSize,omitempty"`
	ImageID      string `yaml:"imageId,omitempty"`
}

// ALB names the application load balancer.
type ALB struct {
	Name string `yaml:"name"`
}

// S3 lists the stack's buckets.
type S3 struct {
	Buckets []Bucket `yaml:"buckets"`
}

// Bucket roles. Exactly one bucket must be declared for each.
const (
	BucketAssets    = "assets"
	BucketArtifacts = "artifacts"
	BucketLogs      = "logs"
)

// BucketRoles lists the required bucket roles in declaration order.
var BucketRoles = []string{BucketAssets, BucketArtifacts, BucketLogs}

// Bucket is one S3 bucket and the role it plays.
type Bucket struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	AddUniqueID  bool   `yaml:"addUniqueId,omitempty"`
	UniqueSuffix string `yaml:"uniqueSuffix,omitempty"`
}

// EFS toggles the shared file system.
type EFS struct {
	Enabled   bool   `yaml:"enabled"`
	Name      string `yaml:"name,omitempty"`
	Encrypted bool   `yaml:"encrypted,omitempty"`
}

// RDS toggles the Aurora cluster.
type RDS struct {
	Enabled               bool   `yaml:"enabled"`
	ClusterName           string `yaml:"clusterName,omitempty"`
	AuroraEngine          string `yaml:"auroraEngine,omitempty"`
	InstanceType          string `yaml:"instanceType"`
	ClusterSize           int    `yaml:"clusterSize,omitempty"`
	ParamFamily           string `yaml:"paramFamily"`
	ParamGroupName        string `yaml:"paramGroupName,omitempty"`
	BackupRetention       int    `yaml:"backupRetention,omitempty"`
	MasterUsernameSSM     string `yaml:"masterUsernameSSM"`
	MasterPasswordSSM     string `yaml:"masterPasswordSSM"`
	MasterPasswordVersion int    `yaml:"masterPasswordVersion,omitempty"`
	DBHostParamName       string `yaml:"dbHostParamName"`
	DBROHostParamName     string `yaml:"dbROHostParamName"`
}

// Cache toggles the ElastiCache clusters.
type Cache struct {
	Enabled  bool           `yaml:"enabled"`
	Clusters []CacheCluster `yaml:"clusters,omitempty"`
}

// CacheCluster is one redis or memcached cluster.
type CacheCluster struct {
	Name          string `yaml:"name"`
	InstanceType  string `yaml:"instanceType"`
	Engine        string `yaml:"engine"`
	HostParamName string `yaml:"hostParamName"`
	ClusterSize   int    `yaml:"clusterSize,omitempty"`
}

// CDN toggles the CloudFront distributions.
type CDN struct {
	Enabled       bool           `yaml:"enabled"`
	Distributions []Distribution `yaml:"distributions,omitempty"`
}

// Distribution is one CloudFront distribution.
type Distribution struct {
	Name               string   `yaml:"name"`
	CNames             []string `yaml:"cnames,omitempty"`
	PriceClass         string   `yaml:"priceClass,omitempty"`
	CertificateArn     string   `yaml:"certificateArn,omitempty"`
	EnablePostRequests bool     `yaml:"enablePostRequests,omitempty"`
}

// CommitRepo lists source repositories.
type CommitRepo struct {
	Repos []Repo `yaml:"repos,omitempty"`
}

// Repo is a CodeCommit repository.
type Repo struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// CodePipeline lists build pipelines.
type CodePipeline struct {
	ConfigDir string     `yaml:"configDir,omitempty"`
	Pipelines []Pipeline `yaml:"pipelines,omitempty"`

	Discovered []Pipeline `yaml:"-"`
}

// Pipeline builds a repository branch and deploys it to a service.
type Pipeline struct {
	Name                 string `yaml:"name"`
	TaskNameReference    string `yaml:"taskNameReference"`
	ServiceNameReference string `yaml:"serviceNameReference,omitempty"`
	RepoNameReference    string `yaml:"repoNameReference"`
	BranchToWatch        string `yaml:"branchToWatch,omitempty"`

	Source string `yaml:"-"`
}

// Notifications configures the pipeline notification function.
type Notifications struct {
	FunctionName string `yaml:"functionName"`
	SlackChannel string `yaml:"slackChannel,omitempty"`
	SlackURL     string `yaml:"slackURL,omitempty"`
	CodeKey      string `yaml:"codeKey,omitempty"`
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.VPC.CidrSize == 0 {
		c.VPC.CidrSize = DefaultVpcCidrSize
	}
	if c.VPC.BaseCidrSize == 0 {
		c.VPC.BaseCidrSize = DefaultSubnetCidrSize
	}
	if c.VPC.Name == "" {
		c.VPC.Name = c.Name
	}
	if c.Scaling.Name == "" && c.Name != "" {
		c.Scaling.Name = c.Name + "-autoscale"
	}
	lt := &c.Scaling.LaunchTemplate
	if lt.InstanceType == "" {
		lt.InstanceType = DefaultInstanceType
	}
	if lt.StorageSize == 0 {
		lt.StorageSize = DefaultStorageSize
	}
	if lt.ImageID == "" {
		lt.ImageID = DefaultImageID
	}
	if c.RDS != nil {
		if c.RDS.AuroraEngine == "" {
			c.RDS.AuroraEngine = DefaultAuroraEngine
		}
		if c.RDS.ClusterName == "" && c.Name != "" {
			c.RDS.ClusterName = c.Name + "-cluster"
		}
		if c.RDS.ClusterSize == 0 {
			c.RDS.ClusterSize = DefaultClusterSize
		}
	}
	if c.Cache != nil {
		for i := range c.Cache.Clusters {
			if c.Cache.Clusters[i].ClusterSize == 0 {
				c.Cache.Clusters[i].ClusterSize = DefaultClusterSize
			}
		}
	}
	for i := range c.CodePipeline.Pipelines {
		c.CodePipeline.Pipelines[i].applyDefaults()
	}
	if c.Notifications != nil && c.Notifications.CodeKey == "" {
		c.Notifications.CodeKey = DefaultNotifyCodeKey
	}
}

// Validate checks the fields every stack needs.
func (c *Config) Validate() error {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.VPC.BaseAddress == "" {
		missing = append(missing, "vpc.baseAddress")
	}
	if c.VPC.NumPublicSubnets <= 0 {
		missing = append(missing, "vpc.numPublicSubnets")
	}
	if c.ECS.ClusterName == "" {
		missing = append(missing, "ecs.clusterName")
	}
	if c.ALB.Name == "" {
		missing = append(missing, "alb.name")
	}
	if c.Scaling.LaunchTemplate.Name == "" {
		missing = append(missing, "scaling.launchTemplate.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", stackplan.ErrConfigurationIncomplete, strings.Join(missing, ", "))
	}
	if c.Scaling.MinSize > c.Scaling.MaxSize {
		return fmt.Errorf("%w: scaling.minSize %d exceeds scaling.maxSize %d",
			stackplan.ErrInvalidConfiguration, c.Scaling.MinSize, c.Scaling.MaxSize)
	}
	return nil
}

// Validate checks an enabled RDS section.
func (r *RDS) Validate() error {
	return requireFields("rds", map[string]string{
		"instanceType":      r.InstanceType,
		"paramFamily":       r.ParamFamily,
		"masterUsernameSSM": r.MasterUsernameSSM,
		"masterPasswordSSM": r.MasterPasswordSSM,
		"dbHostParamName":   r.DBHostParamName,
		"dbROHostParamName": r.DBROHostParamName,
	})
}

// Validate checks an enabled cache section.
func (c *Cache) Validate() error {
	if len(c.Clusters) == 0 {
		return fmt.Errorf("%w: cache is enabled but declares no clusters", stackplan.ErrConfigurationIncomplete)
	}
	for _, cl := range c.Clusters {
		if err := requireFields("cache cluster "+quoteName(cl.Name), map[string]string{
			"name":          cl.Name,
			"instanceType":  cl.InstanceType,
			"engine":        cl.Engine,
			"hostParamName": cl.HostParamName,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks an enabled CDN section.
func (c *CDN) Validate() error {
	if len(c.Distributions) == 0 {
		return fmt.Errorf("%w: cdn is enabled but declares no distributions", stackplan.ErrConfigurationIncomplete)
	}
	for _, d := range c.Distributions {
		if d.Name == "" {
			return fmt.Errorf("%w: cdn distribution without a name", stackplan.ErrConfigurationIncomplete)
		}
	}
	return nil
}

// Validate checks an enabled EFS section.
func (e *EFS) Validate() error {
	return requireFields("efs", map[string]string{"name": e.Name})
}

func requireFields(section string, fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s missing %s", stackplan.ErrConfigurationIncomplete, section, strings.Join(missing, ", "))
}

func quoteName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return fmt.Sprintf("%q", name)
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
