package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	stackplan "github.com/lex00/stackplan-aws-go"
)

// execute runs the root command offline with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--offline", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()

	want := []string{"plan", "build", "graph", "list", "validate", "diff", "watch", "version"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	for _, flag := range []string{"log-level", "log-format", "region", "offline", "zones", "suffix-prefix", "persist-suffixes"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "stackplan ") {
		t.Errorf("output = %q, want 'stackplan <version>'", out)
	}
}

func TestPlanCmd(t *testing.T) {
	out, err := execute(t, "plan", "testdata/stack.yml")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	var result stackplan.PlanResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if !result.Success {
		t.Fatalf("plan not successful: %v", result.Errors)
	}
	if len(result.Subnets) != 2 {
		t.Fatalf("got %d subnets, want 2", len(result.Subnets))
	}
	if result.Subnets[0].Zone != "us-east-1a" || result.Subnets[1].Zone != "us-east-1b" {
		t.Errorf("zones = %s, %s", result.Subnets[0].Zone, result.Subnets[1].Zone)
	}
	if result.Priorities["web"] == 0 || result.Priorities["api"] == 0 {
		t.Errorf("priorities = %v, want web and api", result.Priorities)
	}
	if result.Subsystems["rds"] {
		t.Error("rds should not be enabled")
	}
}

func TestPlanCmd_Zones(t *testing.T) {
	out, err := execute(t, "plan", "testdata/stack.yml", "--zones", "eu-west-1b,eu-west-1c", "-f", "yaml")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if !strings.Contains(out, "zone: eu-west-1b") || !strings.Contains(out, "zone: eu-west-1c") {
		t.Errorf("zones override not applied:\n%s", out)
	}
}

func TestPlanCmd_MissingConfig(t *testing.T) {
	out, err := execute(t, "plan", "testdata/missing.yml")
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(out, `"success": false`) {
		t.Errorf("output should report failure:\n%s", out)
	}
}

func TestBuildCmd(t *testing.T) {
	out, err := execute(t, "build", "testdata/stack.yml")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	var tmpl stackplan.Template
	if err := json.Unmarshal([]byte(out), &tmpl); err != nil {
		t.Fatalf("invalid template JSON: %v", err)
	}
	if tmpl.AWSTemplateFormatVersion != "2010-09-09" {
		t.Errorf("AWSTemplateFormatVersion = %q", tmpl.AWSTemplateFormatVersion)
	}
	if tmpl.Resources["Vpc"].Type != "AWS::EC2::VPC" {
		t.Errorf("Vpc type = %q", tmpl.Resources["Vpc"].Type)
	}
	if _, ok := tmpl.Resources["TaskApi"]; !ok {
		t.Error("task discovered from tasks/ should be planned")
	}
	name, _ := tmpl.Resources["AssetsBucket"].Properties["BucketName"].(string)
	if !strings.HasPrefix(name, "demo-assets-") {
		t.Errorf("assets bucket name = %q, want a suffixed name", name)
	}
}

func TestBuildCmd_OfflineSuffixStable(t *testing.T) {
	first, err := execute(t, "build", "testdata/stack.yml")
	if err != nil {
		t.Fatal(err)
	}
	second, err := execute(t, "build", "testdata/stack.yml")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("offline builds of the same config should be identical")
	}
}

func TestBuildCmd_UnknownFormat(t *testing.T) {
	if _, err := execute(t, "build", "testdata/stack.yml", "-f", "toml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestListCmd(t *testing.T) {
	out, err := execute(t, "list", "testdata/stack.yml")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.HasPrefix(out, "Planned resources (") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "  Vpc: AWS::EC2::VPC [network]\n") {
		t.Errorf("missing Vpc line:\n%s", out)
	}
	if strings.Index(out, "  Vpc:") > strings.Index(out, "  Subnet0:") {
		t.Error("Vpc should be listed before Subnet0")
	}
}

func TestGraphCmd(t *testing.T) {
	out, err := execute(t, "graph", "testdata/stack.yml", "--cluster")
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if !strings.Contains(out, "digraph") {
		t.Errorf("expected DOT output:\n%s", out)
	}
	if !strings.Contains(out, "cluster_network") {
		t.Error("expected network cluster")
	}

	if _, err := execute(t, "graph", "testdata/stack.yml", "-f", "svg"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestValidateCmd(t *testing.T) {
	out, err := execute(t, "validate", "testdata/stack.yml", "--skip-lint")
	if err != nil {
		t.Fatalf("validate failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "Validation passed: ") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDiffCmd(t *testing.T) {
	out, err := execute(t, "diff", "testdata/stack.yml", "testdata/stack-next.yml")
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if !strings.Contains(out, "! LogsBucket (AWS::S3::Bucket)") {
		t.Errorf("bucket rename should be a replacement:\n%s", out)
	}
	if !strings.Contains(out, "0 added, 0 removed") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	out, err = execute(t, "diff", "testdata/stack.yml", "testdata/stack.yml")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "No differences." {
		t.Errorf("identical configs should not differ:\n%s", out)
	}
}

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd(&globalOptions{})

	if cmd.Use != "diff <old> <new>" {
		t.Errorf("Use = %q, want 'diff <old> <new>'", cmd.Use)
	}

	for _, flag := range []string{"format", "ignore-order", "templates"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}
