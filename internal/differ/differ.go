// Package differ provides semantic comparison of CloudFormation templates.
package differ

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/template"
)

// replacementProperties lists, per resource type, the properties whose
// change makes CloudFormation replace the resource. Most are physical names.
var replacementProperties = map[string][]string{
	"AWS::S3::Bucket":                           {"BucketName"},
	"AWS::ECS::Cluster":                         {"ClusterName"},
	"AWS::ECS::Service":                         {"ServiceName", "LaunchType"},
	"AWS::ECR::Repository":                      {"RepositoryName"},
	"AWS::EC2::VPC":                             {"CidrBlock"},
	"AWS::EC2::Subnet":                          {"CidrBlock", "AvailabilityZone", "VpcId"},
	"AWS::EC2::SecurityGroup":                   {"GroupName", "GroupDescription", "VpcId"},
	"AWS::EC2::LaunchTemplate":                  {"LaunchTemplateName"},
	"AWS::ElasticLoadBalancingV2::LoadBalancer": {"Name", "Scheme"},
	"AWS::ElasticLoadBalancingV2::TargetGroup":  {"Name", "Port", "Protocol", "VpcId", "TargetType"},
	"AWS::AutoScaling::AutoScalingGroup":        {"AutoScalingGroupName"},
	"AWS::RDS::DBCluster":                       {"DBClusterIdentifier", "Engine", "DBSubnetGroupName"},
	"AWS::RDS::DBInstance":                      {"DBInstanceIdentifier", "DBClusterIdentifier"},
	"AWS::ElastiCache::CacheCluster":            {"ClusterName", "Engine", "CacheSubnetGroupName"},
	"AWS::EFS::FileSystem":                      {"Encrypted", "PerformanceMode"},
	"AWS::SSM::Parameter":                       {"Name"},
	"AWS::CodeCommit::Repository":               {"RepositoryName"},
	"AWS::CodePipeline::Pipeline":               {"Name"},
	"AWS::CodeBuild::Project":                   {"Name"},
	"AWS::Lambda::Function":                     {"FunctionName"},
	"AWS::Events::Rule":                         {"Name"},
	"AWS::Logs::LogGroup":                       {"LogGroupName"},
}

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    stackplan.TemplateDiff
	Summary stackplan.DiffSummary
}

// Compare compares two CloudFormation templates and returns differences.
// A modified entry is flagged Replacement when a property listed in
// replacementProperties changed.
func Compare(template1, template2 *stackplan.Template, opts Options) (*Result, error) {
	result := &Result{}

	// Build resource maps
	res1 := template1.Resources
	res2 := template2.Resources

	// Find added resources (in template2 but not in template1)
	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, stackplan.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	// Find removed resources (in template1 but not in template2)
	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, stackplan.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	// Find modified resources
	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(name, def1, def2, opts)
			if len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, stackplan.DiffEntry{
					Resource:    name,
					Type:        def1.Type,
					Changes:     changes,
					Replacement: needsReplacement(def1, def2, opts),
				})
			}
		}
	}

	// Sort entries for consistent output
	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	// Calculate summary
	result.Summary = stackplan.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
func LoadTemplate(path string) (*stackplan.Template, error) {
	return template.Load(path)
}

// needsReplacement reports whether the change from def1 to def2 replaces
// the resource.
func needsReplacement(def1, def2 stackplan.ResourceDef, opts Options) bool {
	if def1.Type != def2.Type {
		return true
	}
	for _, prop := range replacementProperties[def1.Type] {
		if !deepEqual(def1.Properties[prop], def2.Properties[prop], opts) {
			return true
		}
	}
	return false
}

// compareResources compares two resource definitions and returns changes.
func compareResources(name string, def1, def2 stackplan.ResourceDef, opts Options) []string {
	var changes []string

	// Compare type
	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	// Compare properties
	propChanges := compareProperties("", def1.Properties, def2.Properties, opts)
	changes = append(changes, propChanges...)

	// Compare DependsOn
	deps1, deps2 := def1.DependsOn, def2.DependsOn
	if opts.IgnoreOrder {
		deps1, deps2 = sortedCopy(deps1), sortedCopy(deps2)
	}
	if !equalStringSlices(deps1, deps2) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

// compareProperties recursively compares property maps.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	// Find added/modified properties
	for key, val2 := range props2 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if val1, exists := props1[key]; exists {
			if !deepEqual(val1, val2, opts) {
				changes = append(changes, fmt.Sprintf("%s modified", path))
			}
		} else {
			changes = append(changes, fmt.Sprintf("%s added", path))
		}
	}

	// Find removed properties
	for key := range props1 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", path))
		}
	}

	sort.Strings(changes)
	return changes
}

// deepEqual compares two values deeply, optionally ignoring order.
// Numbers compare by value, so a template read from JSON equals the same
// template read from YAML.
func deepEqual(a, b any, opts Options) bool {
	return reflect.DeepEqual(normalizeValue(a, opts), normalizeValue(b, opts))
}

// normalizeValue normalizes a value for comparison.
func normalizeValue(v any, opts Options) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, elem := range val {
			result[i] = normalizeValue(elem, opts)
		}
		if opts.IgnoreOrder {
			sort.Slice(result, func(i, j int) bool {
				return sortKey(result[i]) < sortKey(result[j])
			})
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v, opts)
		}
		return result
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return v
	}
}

// sortKey orders normalized values by their JSON form.
func sortKey(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// equalStringSlices compares two string slices for equality.
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []stackplan.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
