// Package intrinsics provides the CloudFormation intrinsic functions used in
// planned resource properties.
//
// The core types are re-exported from cloudformation-schema-go:
//
//	RefTo("Vpc")                → {"Ref": "Vpc"}
//	Attr("Alb", "DNSName")      → {"Fn::GetAtt": ["Alb", "DNSName"]}
//	Subf("/ecs/%s", "web")      → {"Fn::Sub": "/ecs/web"}
//
// Values resolved by CloudFormation at deploy time from the parameter store
// are written as dynamic references (SSMParam, SSMSecureParam).
package intrinsics

import (
	"fmt"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Base64 represents a CloudFormation Fn::Base64 intrinsic function.
	Base64 = intrinsics.Base64
)

// Pseudo-parameters used by planned resources.
var (
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID
	AWS_PARTITION  = intrinsics.AWS_PARTITION
	AWS_REGION     = intrinsics.AWS_REGION
	AWS_STACK_NAME = intrinsics.AWS_STACK_NAME
)

// RefTo references a resource or parameter by logical ID.
func RefTo(logicalID string) Ref {
	return Ref{LogicalName: logicalID}
}

// Attr references an attribute of a resource.
func Attr(logicalID, attribute string) GetAtt {
	return GetAtt{LogicalName: logicalID, Attribute: attribute}
}

// Subf formats a Fn::Sub template string.
func Subf(format string, args ...any) Sub {
	return Sub{String: fmt.Sprintf(format, args...)}
}

// SSMParam is a dynamic reference to a String parameter.
func SSMParam(name string) string {
	return fmt.Sprintf("{{resolve:ssm:%s}}", name)
}

// SSMSecureParam is a dynamic reference to a SecureString parameter.
// A version of 0 resolves the latest version.
func SSMSecureParam(name string, version int) string {
	if version > 0 {
		return fmt.Sprintf("{{resolve:ssm-secure:%s:%d}}", name, version)
	}
	return fmt.Sprintf("{{resolve:ssm-secure:%s}}", name)
}

// ARN builds a Fn::Sub ARN for a resource in the stack's account and region:
// ARN("codepipeline", "web") → arn:${AWS::Partition}:codepipeline:${AWS::Region}:${AWS::AccountId}:web
func ARN(service, resource string) Sub {
	return Subf("arn:${AWS::Partition}:%s:${AWS::Region}:${AWS::AccountId}:%s", service, resource)
}
