// Package template renders planned resource nodes as a CloudFormation
// template.
package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	stackplan "github.com/lex00/stackplan-aws-go"
)

// FormatVersion is the template format version of every built template.
const FormatVersion = "2010-09-09"

// Builder constructs CloudFormation templates from planned nodes.
type Builder struct {
	description string
	nodes       []stackplan.ResourceNode
	outputs     map[string]stackplan.Output
}

// NewBuilder creates a template builder for nodes in creation order.
func NewBuilder(nodes []stackplan.ResourceNode) *Builder {
	return &Builder{
		nodes:   nodes,
		outputs: make(map[string]stackplan.Output),
	}
}

// SetDescription sets the template description.
func (b *Builder) SetDescription(description string) {
	b.description = description
}

// AddOutput adds a template output.
func (b *Builder) AddOutput(name string, out stackplan.Output) {
	b.outputs[name] = out
}

// Build constructs the CloudFormation template. Every node must come after
// the nodes it depends on.
func (b *Builder) Build() (*stackplan.Template, error) {
	template := &stackplan.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]stackplan.ResourceDef, len(b.nodes)),
	}

	for _, node := range b.nodes {
		if !isResourceType(node.Type) {
			return nil, fmt.Errorf("%s: unknown resource type: %q", node.ID, node.Type)
		}
		if _, dup := template.Resources[node.ID]; dup {
			return nil, fmt.Errorf("%w: resource %q appears twice", stackplan.ErrDuplicateIdentifier, node.ID)
		}
		for _, dep := range node.DependsOn {
			if _, ok := template.Resources[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s, which is not planned before it",
					stackplan.ErrMissingReference, node.ID, dep)
			}
		}

		props, _ := transformValue(node.Properties).(map[string]any)
		template.Resources[node.ID] = stackplan.ResourceDef{
			Type:       node.Type,
			Properties: props,
			DependsOn:  append([]string(nil), node.DependsOn...),
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]stackplan.Output, len(b.outputs))
		for name, out := range b.outputs {
			out.Value = transformValue(out.Value)
			template.Outputs[name] = out
		}
	}

	return template, nil
}

// transformValue deep-copies a property value so templates never share
// maps with the plan they were built from.
func transformValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return nil
		}
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = transformValue(val)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, elem := range v {
			result[i] = transformValue(elem)
		}
		return result

	default:
		return value
	}
}

// isResourceType reports whether t looks like AWS::Service::Type.
func isResourceType(t string) bool {
	parts := strings.Split(t, "::")
	if len(parts) != 3 || parts[0] != "AWS" {
		return false
	}
	return parts[1] != "" && parts[2] != ""
}

// Order returns the resources of t in dependency order. Ties are broken
// alphabetically.
func Order(t *stackplan.Template) ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range t.Resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, res := range t.Resources {
		for _, dep := range dependencies(res) {
			if _, exists := t.Resources[dep]; exists {
				graph[dep] = append(graph[dep], name)
				inDegree[name]++
			}
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(t.Resources) {
		return nil, detectCycle(t)
	}
	return result, nil
}

// dependencies returns the explicit and implied (Ref, Fn::GetAtt)
// dependencies of a resource.
func dependencies(res stackplan.ResourceDef) []string {
	seen := make(map[string]bool)
	var deps []string
	add := func(name string) {
		if name != "" && !strings.HasPrefix(name, "AWS::") && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}
	for _, d := range res.DependsOn {
		add(d)
	}
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if ref, ok := val["Ref"].(string); ok {
				add(ref)
			}
			if attr, ok := val["Fn::GetAtt"].([]any); ok && len(attr) > 0 {
				if name, ok := attr[0].(string); ok {
					add(name)
				}
			}
			for _, child := range val {
				walk(child)
			}
		case []any:
			for _, child := range val {
				walk(child)
			}
		}
	}
	walk(res.Properties)
	sort.Strings(deps)
	return deps
}

// detectCycle finds and reports a cycle in the dependency graph.
func detectCycle(t *stackplan.Template) error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range dependencies(t.Resources[node]) {
			if _, exists := t.Resources[dep]; !exists {
				continue
			}
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		path[node] = false
		return false
	}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("%w: %s", stackplan.ErrCycleDetected, strings.Join(cycle, " → "))
	}
	return stackplan.ErrCycleDetected
}

// ToJSON serializes the template to JSON.
func ToJSON(t *stackplan.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *stackplan.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Parse decodes a JSON or YAML template.
func Parse(data []byte) (*stackplan.Template, error) {
	var t stackplan.Template
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty template")
	}
	var err error
	if data[0] == '{' {
		err = json.Unmarshal(data, &t)
	} else {
		err = yaml.Unmarshal(data, &t)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	if t.Resources == nil {
		t.Resources = make(map[string]stackplan.ResourceDef)
	}
	return &t, nil
}

// Load reads and parses a template file.
func Load(path string) (*stackplan.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
