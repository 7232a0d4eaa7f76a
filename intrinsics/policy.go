package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any, used for Condition blocks.
type Json = map[string]any

// PolicyVersion is the IAM policy language version.
const PolicyVersion = "2012-10-17"

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string            `json:"Version,omitempty"`
	Statement []PolicyStatement `json:"Statement"`
}

// PolicyStatement represents an IAM policy statement.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// ServicePrincipal represents a service principal (e.g., ecs-tasks.amazonaws.com).
// Serializes to {"Service": ...} format.
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}

// StringEqualsIfExists is the IAM condition operator of the same name.
const StringEqualsIfExists = "StringEqualsIfExists"

// AssumeRolePolicy allows the given services to assume a role.
func AssumeRolePolicy(services ...string) PolicyDocument {
	principal := make(ServicePrincipal, len(services))
	for i, s := range services {
		principal[i] = s
	}
	return PolicyDocument{
		Version: PolicyVersion,
		Statement: []PolicyStatement{{
			Effect:    "Allow",
			Principal: principal,
			Action:    "sts:AssumeRole",
		}},
	}
}

// Allow builds an Allow statement for actions on resources.
func Allow(actions []string, resources ...any) PolicyStatement {
	stmt := PolicyStatement{Effect: "Allow", Action: actions, Resource: "*"}
	if len(resources) == 1 {
		stmt.Resource = resources[0]
	} else if len(resources) > 1 {
		stmt.Resource = resources
	}
	return stmt
}

// Policy builds a policy document from statements.
func Policy(statements ...PolicyStatement) PolicyDocument {
	return PolicyDocument{Version: PolicyVersion, Statement: statements}
}
