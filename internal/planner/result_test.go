package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/stackplan-aws-go/internal/template"
)

func TestPlan_Result(t *testing.T) {
	p := plan(t, parse(t, baseConfig))
	result := p.Result()

	assert.True(t, result.Success)
	assert.Equal(t, "demo", result.Name)
	assert.Equal(t, map[string]bool{"efs": false, "rds": false, "cache": false, "cdn": false}, result.Subsystems)
	require.Len(t, result.Subnets, 3)
	assert.Equal(t, "Subnet0", result.Subnets[0].ID)
	assert.Equal(t, "10.0.1.0/24", result.Subnets[0].Cidr)
	assert.Equal(t, "us-east-1a", result.Subnets[0].Zone)
	assert.Equal(t, p.Priorities, result.Priorities)
	assert.Len(t, result.Nodes, len(p.Nodes))
}

func TestPlan_Template(t *testing.T) {
	p := plan(t, parse(t, baseConfig+subsystemsConfig))

	tmpl, err := p.Template()
	require.NoError(t, err)
	assert.Equal(t, template.FormatVersion, tmpl.AWSTemplateFormatVersion)
	assert.Equal(t, "demo application stack", tmpl.Description)
	assert.Len(t, tmpl.Resources, len(p.Nodes))
	assert.Contains(t, tmpl.Outputs, "VpcId")

	order, err := template.Order(tmpl)
	require.NoError(t, err)
	assert.Len(t, order, len(p.Nodes))

	vpc := tmpl.Resources["Vpc"]
	assert.Equal(t, "AWS::EC2::VPC", vpc.Type)
	assert.Equal(t, "10.0.0.0/16", vpc.Properties["CidrBlock"])
}
