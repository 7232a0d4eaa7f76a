// Package validation checks a plan and the template built from it.
//
// Three kinds of checks run:
//   - plan checks: creation order, listener priorities, subnet layout and
//     bucket roles, evaluated on the plan itself
//   - schema: required properties and allowed values of every resource type
//     the planner emits, offline
//   - cfn-lint-go: CloudFormation template validation (library dependency)
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/netalloc"
	"github.com/lex00/stackplan-aws-go/internal/planner"
	"github.com/lex00/stackplan-aws-go/internal/template"
)

// PlanResult contains the result of the plan checks.
type PlanResult struct {
	Errors   []error  `json:"-"`
	Warnings []string `json:"warnings"`
}

// Passed reports whether no plan check failed.
func (r PlanResult) Passed() bool { return len(r.Errors) == 0 }

// Messages returns the error messages.
func (r PlanResult) Messages() []string {
	msgs := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
	RawOutput     string   `json:"raw_output,omitempty"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// ValidationResult contains all validation results for a plan.
type ValidationResult struct {
	PlanResult    *PlanResult    `json:"plan_result"`
	SchemaResult  *SchemaResult  `json:"schema_result"`
	CfnLintResult *CfnLintResult `json:"cfn_lint_result"`
}

// Passed reports whether every check passed.
func (r ValidationResult) Passed() bool {
	if r.PlanResult != nil && !r.PlanResult.Passed() {
		return false
	}
	if r.SchemaResult != nil && !r.SchemaResult.Valid {
		return false
	}
	return r.CfnLintResult == nil || r.CfnLintResult.Passed
}

// CheckPlan runs the plan checks.
func CheckPlan(p *planner.Plan, cfg *config.Config) *PlanResult {
	result := &PlanResult{}
	result.Errors = append(result.Errors, checkOrder(p.Nodes)...)
	result.Errors = append(result.Errors, checkPriorities(p.Priorities)...)
	result.Errors = append(result.Errors, checkSubnets(p.Subnets, cfg.VPC)...)
	result.Errors = append(result.Errors, checkBucketRoles(cfg.S3.Buckets)...)

	for svc, name := range p.TargetNames {
		if len(name) > ident.MaxTargetNameLength {
			result.Errors = append(result.Errors, fmt.Errorf("%w: target group name %q of service %q exceeds %d characters",
				stackplan.ErrInvalidConfiguration, name, svc, ident.MaxTargetNameLength))
		}
	}
	if len(p.Subnets) < cfg.VPC.NumPublicSubnets {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"only %d of %d requested subnets were placed; the region has fewer availability zones",
			len(p.Subnets), cfg.VPC.NumPublicSubnets))
	}
	return result
}

// checkOrder verifies every node comes after its dependencies.
func checkOrder(nodes []stackplan.ResourceNode) []error {
	var errs []error
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			if !seen[dep] {
				errs = append(errs, fmt.Errorf("%w: %s is ordered before its dependency %s",
					stackplan.ErrCycleDetected, n.ID, dep))
			}
		}
		seen[n.ID] = true
	}
	return errs
}

// checkPriorities verifies listener priorities are unique and in range.
func checkPriorities(priorities map[string]int) []error {
	var errs []error
	owner := make(map[int]string, len(priorities))
	services := make([]string, 0, len(priorities))
	for svc := range priorities {
		services = append(services, svc)
	}
	sort.Strings(services)
	for _, svc := range services {
		p := priorities[svc]
		if p < 1 || p > ident.MaxPriority {
			errs = append(errs, fmt.Errorf("%w: service %q has priority %d outside 1..%d",
				stackplan.ErrInvalidConfiguration, svc, p, ident.MaxPriority))
		}
		if other, dup := owner[p]; dup {
			errs = append(errs, fmt.Errorf("%w: services %q and %q share priority %d",
				stackplan.ErrDuplicateIdentifier, other, svc, p))
		}
		owner[p] = svc
	}
	return errs
}

// checkSubnets verifies subnets are disjoint and inside the VPC block.
func checkSubnets(subnets []netalloc.Subnet, vpc config.VPC) []error {
	var errs []error
	if err := netalloc.Overlaps(subnets); err != nil {
		errs = append(errs, err)
	}
	base, err := netalloc.ParseBlock(vpc.BaseAddress, vpc.CidrSize)
	if err != nil {
		return append(errs, err)
	}
	for _, s := range subnets {
		if s.Block.Bits() < base.Bits() || !base.Contains(s.Block.Addr()) {
			errs = append(errs, fmt.Errorf("%w: subnet %d (%s) is outside the VPC block %s",
				stackplan.ErrInvalidConfiguration, s.Ordinal, s.Block, base))
		}
	}
	return errs
}

// checkBucketRoles verifies exactly one bucket is declared per role.
func checkBucketRoles(buckets []config.Bucket) []error {
	var errs []error
	count := make(map[string]int)
	for _, b := range buckets {
		count[b.Type]++
	}
	for _, role := range config.BucketRoles {
		switch n := count[role]; {
		case n == 0:
			errs = append(errs, fmt.Errorf("%w: no bucket of type %q", stackplan.ErrConfigurationIncomplete, role))
		case n > 1:
			errs = append(errs, fmt.Errorf("%w: %d buckets of type %q", stackplan.ErrDuplicateIdentifier, n, role))
		}
	}
	return errs
}

// LintTemplate writes t to a temporary file and runs cfn-lint-go on it.
func LintTemplate(t *stackplan.Template) (*CfnLintResult, error) {
	data, err := template.ToYAML(t)
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}
	dir, err := os.MkdirTemp("", "stackplan-lint-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return RunCfnLint(path)
}

// RunCfnLint runs cfn-lint-go on the given template file.
// This uses cfn-lint-go as a library dependency for guaranteed version control.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	if len(matches) == 0 {
		result.Passed = true
		return result, nil
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable.
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// Validate runs the plan checks and, when t is not nil, the schema check
// and cfn-lint.
func Validate(p *planner.Plan, cfg *config.Config, t *stackplan.Template) (*ValidationResult, error) {
	result := &ValidationResult{PlanResult: CheckPlan(p, cfg)}
	if t == nil {
		return result, nil
	}
	result.SchemaResult = CheckSchema(t, false)
	lintResult, err := LintTemplate(t)
	if err != nil {
		return nil, fmt.Errorf("running cfn-lint: %w", err)
	}
	result.CfnLintResult = lintResult
	return result, nil
}
