package resource

import (
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// Role is AWS::IAM::Role.
type Role struct {
	Description              string                    `json:"Description"`
	AssumeRolePolicyDocument intrinsics.PolicyDocument `json:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []any                     `json:"ManagedPolicyArns"`
	Policies                 []InlinePolicy            `json:"Policies"`
}

func (Role) ResourceType() string { return "AWS::IAM::Role" }

// InlinePolicy is a policy embedded in a role.
type InlinePolicy struct {
	PolicyName     string                    `json:"PolicyName"`
	PolicyDocument intrinsics.PolicyDocument `json:"PolicyDocument"`
}

// InstanceProfile is AWS::IAM::InstanceProfile.
type InstanceProfile struct {
	Roles []any `json:"Roles"`
}

func (InstanceProfile) ResourceType() string { return "AWS::IAM::InstanceProfile" }

// ManagedPolicy returns the ARN of an AWS managed policy, for example
// ManagedPolicy("service-role/AmazonEC2ContainerServiceforEC2Role").
func ManagedPolicy(name string) intrinsics.Sub {
	return intrinsics.Subf("arn:${AWS::Partition}:iam::aws:policy/%s", name)
}
