// Package stackplan plans multi-tier AWS application stacks.
//
// A declarative YAML configuration describing a VPC, an ECS cluster behind an
// application load balancer, optional data and delivery subsystems and a set
// of build pipelines is turned into an ordered plan of resource descriptors:
//
//	network → identity → security → storage → compute → balancing →
//	data tier → tasks and services → pipelines → delivery
//
// Every descriptor carries its CloudFormation type, fully resolved
// properties and explicit dependencies. The plan is emitted as a
// CloudFormation template by the stackplan CLI.
package stackplan

// Resource represents a CloudFormation resource.
// All typed property structs in internal/resource implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::EC2::VPC")
	ResourceType() string
}

// Kind groups resource nodes by the part of the stack they belong to.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindIdentity     Kind = "identity"
	KindSecurity     Kind = "security"
	KindStorage      Kind = "storage"
	KindBucket       Kind = "bucket"
	KindCompute      Kind = "compute"
	KindBalancer     Kind = "balancer"
	KindDatabase     Kind = "database"
	KindCache        Kind = "cache"
	KindParameter    Kind = "parameter"
	KindPipeline     Kind = "pipeline"
	KindDelivery     Kind = "delivery"
	KindNotification Kind = "notification"
)

// ResourceNode is a single planned resource.
//
// DependsOn lists the IDs of nodes that must be created before this one.
// It is filled by the dependency graph when the plan is ordered.
type ResourceNode struct {
	ID         string         `json:"id" yaml:"id"`
	Kind       Kind           `json:"kind" yaml:"kind"`
	Type       string         `json:"type" yaml:"type"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	DependsOn  []string       `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any     `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export names a cross-stack output export.
type Export struct {
	Name string `json:"Name" yaml:"Name"`
}

// SubnetResult describes one allocated subnet in plan output.
type SubnetResult struct {
	ID      string `json:"id" yaml:"id"`
	Cidr    string `json:"cidr" yaml:"cidr"`
	Zone    string `json:"zone" yaml:"zone"`
	Ordinal int    `json:"ordinal" yaml:"ordinal"`
}

// PlanResult is the output from `stackplan plan`.
type PlanResult struct {
	Success     bool              `json:"success" yaml:"success"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Subsystems  map[string]bool   `json:"subsystems,omitempty" yaml:"subsystems,omitempty"`
	Subnets     []SubnetResult    `json:"subnets,omitempty" yaml:"subnets,omitempty"`
	Priorities  map[string]int    `json:"priorities,omitempty" yaml:"priorities,omitempty"`
	TargetNames map[string]string `json:"targetNames,omitempty" yaml:"targetNames,omitempty"`
	Nodes       []ResourceNode    `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Errors      []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// BuildResult is the JSON output from `stackplan build`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `stackplan validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `stackplan list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name      string   `json:"name"`
	Kind      Kind     `json:"kind"`
	Type      string   `json:"type"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// TemplateDiff lists resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is a single resource difference.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
	// Replacement is set when the change forces CloudFormation to
	// recreate a named resource (bucket, cluster, repository).
	Replacement bool `json:"replacement,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// DiffResult is the JSON output from `stackplan diff`.
type DiffResult struct {
	Success bool         `json:"success"`
	Diff    TemplateDiff `json:"diff"`
	Summary DiffSummary  `json:"summary"`
	Errors  []string     `json:"errors,omitempty"`
}
