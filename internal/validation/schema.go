package validation

import (
	"fmt"
	"sort"
	"strings"

	stackplan "github.com/lex00/stackplan-aws-go"
)

// SchemaError is a schema violation in one resource.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

func (e SchemaError) String() string {
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Property, e.Message)
}

// SchemaResult contains the result of the offline schema check.
type SchemaResult struct {
	Valid    bool
	Errors   []SchemaError
	Warnings []SchemaError
}

// ResourceSchema is the part of a CloudFormation resource schema that the
// offline check enforces.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
}

var (
	str     = PropertySchema{Type: "String"}
	integer = PropertySchema{Type: "Integer"}
	list    = PropertySchema{Type: "List"}
	object  = PropertySchema{Type: "Map"}
	anyJSON = PropertySchema{Type: "Json"}
)

func oneOf(values ...string) PropertySchema {
	return PropertySchema{Type: "String", AllowedValues: values}
}

// resourceSchemas covers every resource type the planner emits.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::EC2::VPC": {
		Required:   []string{"CidrBlock"},
		Properties: map[string]PropertySchema{"CidrBlock": str, "InstanceTenancy": oneOf("default", "dedicated", "host")},
	},
	"AWS::EC2::Subnet": {
		Required:   []string{"VpcId"},
		Properties: map[string]PropertySchema{"CidrBlock": str, "AvailabilityZone": str, "Tags": list},
	},
	"AWS::EC2::InternetGateway": {},
	"AWS::EC2::VPCGatewayAttachment": {
		Required: []string{"VpcId"},
	},
	"AWS::EC2::RouteTable": {
		Required: []string{"VpcId"},
	},
	"AWS::EC2::Route": {
		Required:   []string{"RouteTableId"},
		Properties: map[string]PropertySchema{"DestinationCidrBlock": str},
	},
	"AWS::EC2::SubnetRouteTableAssociation": {
		Required: []string{"RouteTableId", "SubnetId"},
	},
	"AWS::EC2::SecurityGroup": {
		Required:   []string{"GroupDescription"},
		Properties: map[string]PropertySchema{"GroupDescription": str, "SecurityGroupIngress": list},
	},
	"AWS::EC2::LaunchTemplate": {
		Required:   []string{"LaunchTemplateData"},
		Properties: map[string]PropertySchema{"LaunchTemplateName": str, "LaunchTemplateData": object},
	},
	"AWS::IAM::Role": {
		Required:   []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{"AssumeRolePolicyDocument": anyJSON, "ManagedPolicyArns": list, "Policies": list},
	},
	"AWS::IAM::InstanceProfile": {
		Required:   []string{"Roles"},
		Properties: map[string]PropertySchema{"Roles": list},
	},
	"AWS::S3::Bucket": {
		Properties: map[string]PropertySchema{"BucketName": str},
	},
	"AWS::S3::BucketPolicy": {
		Required: []string{"Bucket", "PolicyDocument"},
	},
	"AWS::EFS::FileSystem": {
		Properties: map[string]PropertySchema{"PerformanceMode": oneOf("generalPurpose", "maxIO")},
	},
	"AWS::EFS::MountTarget": {
		Required:   []string{"FileSystemId", "SecurityGroups", "SubnetId"},
		Properties: map[string]PropertySchema{"SecurityGroups": list},
	},
	"AWS::AutoScaling::AutoScalingGroup": {
		Required:   []string{"MaxSize", "MinSize"},
		Properties: map[string]PropertySchema{"MaxSize": str, "MinSize": str, "DesiredCapacity": str, "VPCZoneIdentifier": list},
	},
	"AWS::ElasticLoadBalancingV2::LoadBalancer": {
		Properties: map[string]PropertySchema{
			"Scheme":  oneOf("internet-facing", "internal"),
			"Type":    oneOf("application", "network", "gateway"),
			"Subnets": list,
		},
	},
	"AWS::ElasticLoadBalancingV2::TargetGroup": {
		Properties: map[string]PropertySchema{
			"Port":       integer,
			"Protocol":   oneOf("HTTP", "HTTPS", "TCP", "TLS", "UDP", "TCP_UDP"),
			"TargetType": oneOf("instance", "ip", "lambda", "alb"),
		},
	},
	"AWS::ElasticLoadBalancingV2::Listener": {
		Required: []string{"DefaultActions", "LoadBalancerArn"},
		Properties: map[string]PropertySchema{
			"DefaultActions": list,
			"Port":           integer,
			"Protocol":       oneOf("HTTP", "HTTPS", "TCP", "TLS", "UDP", "TCP_UDP"),
		},
	},
	"AWS::ElasticLoadBalancingV2::ListenerRule": {
		Required:   []string{"Actions", "Conditions", "ListenerArn", "Priority"},
		Properties: map[string]PropertySchema{"Actions": list, "Conditions": list, "Priority": integer},
	},
	"AWS::ECS::Cluster": {
		Properties: map[string]PropertySchema{"ClusterName": str},
	},
	"AWS::ECS::TaskDefinition": {
		Properties: map[string]PropertySchema{
			"ContainerDefinitions": list,
			"NetworkMode":          oneOf("bridge", "host", "awsvpc", "none"),
		},
	},
	"AWS::ECS::Service": {
		Properties: map[string]PropertySchema{
			"LaunchType":    oneOf("EC2", "FARGATE", "EXTERNAL"),
			"LoadBalancers": list,
		},
	},
	"AWS::ECR::Repository": {
		Properties: map[string]PropertySchema{"RepositoryName": str},
	},
	"AWS::Logs::LogGroup": {
		Properties: map[string]PropertySchema{"LogGroupName": str, "RetentionInDays": integer},
	},
	"AWS::RDS::DBSubnetGroup": {
		Required:   []string{"DBSubnetGroupDescription", "SubnetIds"},
		Properties: map[string]PropertySchema{"SubnetIds": list},
	},
	"AWS::RDS::DBClusterParameterGroup": {
		Required:   []string{"Description", "Family"},
		Properties: map[string]PropertySchema{"Parameters": object},
	},
	"AWS::RDS::DBCluster": {
		Required:   []string{"Engine"},
		Properties: map[string]PropertySchema{"Engine": str, "BackupRetentionPeriod": integer},
	},
	"AWS::RDS::DBInstance": {
		Required:   []string{"DBInstanceClass"},
		Properties: map[string]PropertySchema{"DBInstanceClass": str},
	},
	"AWS::ElastiCache::SubnetGroup": {
		Required:   []string{"Description", "SubnetIds"},
		Properties: map[string]PropertySchema{"SubnetIds": list},
	},
	"AWS::ElastiCache::CacheCluster": {
		Required: []string{"CacheNodeType", "Engine", "NumCacheNodes"},
		Properties: map[string]PropertySchema{
			"Engine":        oneOf("redis", "memcached", "valkey"),
			"NumCacheNodes": integer,
		},
	},
	"AWS::SSM::Parameter": {
		Required:   []string{"Type", "Value"},
		Properties: map[string]PropertySchema{"Type": oneOf("String", "StringList")},
	},
	"AWS::CloudFront::CloudFrontOriginAccessIdentity": {
		Required: []string{"CloudFrontOriginAccessIdentityConfig"},
	},
	"AWS::CloudFront::Distribution": {
		Required:   []string{"DistributionConfig"},
		Properties: map[string]PropertySchema{"DistributionConfig": object},
	},
	"AWS::CodeCommit::Repository": {
		Required:   []string{"RepositoryName"},
		Properties: map[string]PropertySchema{"RepositoryName": str},
	},
	"AWS::CodeBuild::Project": {
		Required:   []string{"Artifacts", "Environment", "ServiceRole", "Source"},
		Properties: map[string]PropertySchema{"Artifacts": object, "Environment": object, "Source": object},
	},
	"AWS::CodePipeline::Pipeline": {
		Required:   []string{"RoleArn", "Stages"},
		Properties: map[string]PropertySchema{"Stages": list, "ArtifactStore": object},
	},
	"AWS::Events::Rule": {
		Properties: map[string]PropertySchema{"State": oneOf("ENABLED", "DISABLED"), "Targets": list},
	},
	"AWS::Lambda::Function": {
		Required:   []string{"Code", "Role"},
		Properties: map[string]PropertySchema{"Code": object, "Timeout": integer, "Runtime": str},
	},
	"AWS::Lambda::Permission": {
		Required:   []string{"Action", "FunctionName", "Principal"},
		Properties: map[string]PropertySchema{"Action": str, "Principal": str},
	},
}

// CheckSchema validates the resources of a template against the known
// schemas. Unknown resource types are warnings; strict mode also warns on
// properties the schema does not list.
func CheckSchema(t *stackplan.Template, strict bool) *SchemaResult {
	result := &SchemaResult{Valid: true}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs, warnings := checkResource(name, t.Resources[name], strict)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func checkResource(name string, res stackplan.ResourceDef, strict bool) ([]SchemaError, []SchemaError) {
	var errs, warnings []SchemaError

	if !isValidResourceType(res.Type) {
		errs = append(errs, SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", res.Type),
		})
		return errs, warnings
	}

	schema, ok := resourceSchemas[res.Type]
	if !ok {
		warnings = append(warnings, SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", res.Type),
		})
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := res.Properties[required]; !exists {
			errs = append(errs, SchemaError{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	props := make([]string, 0, len(res.Properties))
	for prop := range res.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	for _, prop := range props {
		propSchema, ok := schema.Properties[prop]
		if !ok {
			if strict && !isRequired(schema, prop) {
				warnings = append(warnings, SchemaError{
					Resource: name,
					Property: prop,
					Message:  fmt.Sprintf("unknown property: %s", prop),
				})
			}
			continue
		}
		errs = append(errs, checkProperty(name, prop, res.Properties[prop], propSchema)...)
	}

	return errs, warnings
}

func isRequired(schema ResourceSchema, prop string) bool {
	for _, r := range schema.Required {
		if r == prop {
			return true
		}
	}
	return false
}

// isValidResourceType checks if a resource type has valid format.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	return len(parts) == 3 && parts[0] == "AWS" && parts[1] != "" && parts[2] != ""
}

func checkProperty(resource, property string, value any, schema PropertySchema) []SchemaError {
	var errs []SchemaError

	if !isValidType(value, schema.Type) {
		errs = append(errs, SchemaError{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		})
	}

	if len(schema.AllowedValues) > 0 {
		if s, ok := value.(string); ok {
			found := false
			for _, allowed := range schema.AllowedValues {
				if s == allowed {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, SchemaError{
					Resource: resource,
					Property: property,
					Message:  fmt.Sprintf("value %q not in allowed values: %v", s, schema.AllowedValues),
				})
			}
		}
	}

	return errs
}

// isValidType checks if a value matches the expected type. Intrinsic
// functions match every type.
func isValidType(value any, expectedType string) bool {
	if m, ok := value.(map[string]any); ok {
		for key := range m {
			if strings.HasPrefix(key, "Fn::") || key == "Ref" {
				return true
			}
		}
	}

	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, float64:
			return true
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
