package graph

import (
	"strings"
	"testing"

	stackplan "github.com/lex00/stackplan-aws-go"
)

func testNodes() []stackplan.ResourceNode {
	return []stackplan.ResourceNode{
		{ID: "Vpc", Kind: stackplan.KindNetwork, Type: "AWS::EC2::VPC"},
		{ID: "Subnet0", Kind: stackplan.KindNetwork, Type: "AWS::EC2::Subnet", DependsOn: []string{"Vpc"}},
		{ID: "TaskRole", Kind: stackplan.KindIdentity, Type: "AWS::IAM::Role"},
		{
			ID:   "TaskWeb",
			Kind: stackplan.KindCompute,
			Type: "AWS::ECS::TaskDefinition",
			Properties: map[string]any{
				"TaskRoleArn": map[string]any{"Fn::GetAtt": []any{"TaskRole", "Arn"}},
			},
			DependsOn: []string{"TaskRole"},
		},
	}
}

func TestGenerator_Generate_SimpleGraph(t *testing.T) {
	gen := &Generator{}
	var sb strings.Builder
	if err := gen.Generate(testNodes(), &sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := sb.String()

	if !strings.Contains(output, "digraph") {
		t.Error("expected digraph declaration")
	}
	for _, id := range []string{"Vpc", "Subnet0", "TaskRole", "TaskWeb"} {
		if !strings.Contains(output, id) {
			t.Errorf("expected %s node", id)
		}
	}
	if !strings.Contains(output, "AWS::EC2::Subnet") {
		t.Error("expected resource type in label")
	}
	if !strings.Contains(output, "->") {
		t.Error("expected at least one edge")
	}
}

func TestGenerator_Generate_WithGetAtt(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(testNodes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "blue") {
		t.Error("expected blue color for GetAtt edge")
	}
}

func TestGenerator_Generate_NoGetAtt(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(testNodes()[:2])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(output, "blue") {
		t.Error("plain dependency should not be blue")
	}
}

func TestGenerator_Generate_ClusterByKind(t *testing.T) {
	gen := &Generator{ClusterByKind: true}
	output, err := gen.GenerateString(testNodes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "cluster_network") {
		t.Error("expected network cluster subgraph")
	}
	if strings.Contains(output, "cluster_identity") {
		t.Error("single-node kinds should not be clustered")
	}
}

func TestGenerator_Generate_Kinds(t *testing.T) {
	gen := &Generator{Kinds: []stackplan.Kind{stackplan.KindNetwork}}
	output, err := gen.GenerateString(testNodes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "Subnet0") {
		t.Error("expected network nodes")
	}
	if strings.Contains(output, "TaskWeb") {
		t.Error("expected compute nodes to be filtered out")
	}
}

func TestGenerator_Generate_MermaidFormat(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	var sb strings.Builder
	if err := gen.Generate(testNodes(), &sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := sb.String()

	if !strings.Contains(output, "graph") && !strings.Contains(output, "flowchart") {
		t.Errorf("expected mermaid graph/flowchart, got:\n%s", output)
	}
	if strings.Contains(output, "digraph") {
		t.Error("expected mermaid format, not DOT")
	}
}

func TestGenerator_GenerateString_Empty(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "digraph") {
		t.Error("expected an empty digraph")
	}
}
