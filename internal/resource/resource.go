// Package resource defines typed CloudFormation property structs for every
// resource the planner emits.
//
// Each struct implements stackplan.Resource. Field names match the
// CloudFormation property names; fields that may carry an intrinsic function
// are typed any. Zero values are omitted from the serialized properties, so
// fields where 0 or false is meaningful are pointers (see Int and Bool).
package resource

import (
	"fmt"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/serialize"
)

// Tag is a CloudFormation resource tag.
type Tag struct {
	Key   string `json:"Key"`
	Value any    `json:"Value"`
}

// NameTag returns the conventional Name tag list.
func NameTag(name any) []Tag {
	return []Tag{{Key: "Name", Value: name}}
}

// Int returns a pointer to v, for properties where 0 must be emitted.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for properties where false must be emitted.
func Bool(v bool) *bool { return &v }

// Node serializes r into a plan node with the given logical ID.
func Node(id string, kind stackplan.Kind, r stackplan.Resource) (stackplan.ResourceNode, error) {
	props, err := serialize.Properties(r)
	if err != nil {
		return stackplan.ResourceNode{}, fmt.Errorf("serializing %s (%s): %w", id, r.ResourceType(), err)
	}
	return stackplan.ResourceNode{
		ID:         id,
		Kind:       kind,
		Type:       r.ResourceType(),
		Properties: props,
	}, nil
}

// Adder accepts nodes and their dependencies; *dag.Graph satisfies it.
type Adder interface {
	Add(node stackplan.ResourceNode, deps ...string) error
}

// Add serializes r and adds it to g with the given dependencies.
func Add(g Adder, id string, kind stackplan.Kind, r stackplan.Resource, deps ...string) error {
	node, err := Node(id, kind, r)
	if err != nil {
		return err
	}
	return g.Add(node, deps...)
}
