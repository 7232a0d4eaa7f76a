package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefTo_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(RefTo("Vpc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "Vpc"}`, string(data))
}

func TestAttr_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Attr("Alb", "DNSName"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["Alb", "DNSName"]}`, string(data))
}

func TestSubf_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Subf("/ecs/%s", "web"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Sub": "/ecs/web"}`, string(data))
}

func TestARN(t *testing.T) {
	assert.Equal(t,
		"arn:${AWS::Partition}:codecommit:${AWS::Region}:${AWS::AccountId}:web-repo",
		ARN("codecommit", "web-repo").String)
}

func TestDynamicReferences(t *testing.T) {
	assert.Equal(t, "{{resolve:ssm:/demo/db/user}}", SSMParam("/demo/db/user"))
	assert.Equal(t, "{{resolve:ssm-secure:/demo/db/pass:3}}", SSMSecureParam("/demo/db/pass", 3))
	assert.Equal(t, "{{resolve:ssm-secure:/demo/db/pass}}", SSMSecureParam("/demo/db/pass", 0))
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_STACK_NAME", AWS_STACK_NAME, `{"Ref": "AWS::StackName"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAssumeRolePolicy(t *testing.T) {
	data, err := json.Marshal(AssumeRolePolicy("ecs-tasks.amazonaws.com"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "ecs-tasks.amazonaws.com"},
			"Action": "sts:AssumeRole"
		}]
	}`, string(data))

	data, err = json.Marshal(AssumeRolePolicy("a.amazonaws.com", "b.amazonaws.com"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Service":["a.amazonaws.com","b.amazonaws.com"]`)
}

func TestAllow(t *testing.T) {
	stmt := Allow([]string{"s3:GetObject"})
	assert.Equal(t, "*", stmt.Resource)

	stmt = Allow([]string{"s3:GetObject"}, "arn:aws:s3:::demo/*")
	assert.Equal(t, "arn:aws:s3:::demo/*", stmt.Resource)

	stmt = Allow([]string{"s3:GetObject"}, "a", "b")
	assert.Equal(t, []any{"a", "b"}, stmt.Resource)

	doc := Policy(stmt)
	assert.Equal(t, PolicyVersion, doc.Version)
	assert.Len(t, doc.Statement, 1)
}
