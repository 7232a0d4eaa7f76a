package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking a plan.
func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		skipLint     bool
	)

	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Check the plan and lint the generated template",
		Long: `Validate plans the stack and checks the result.

Checks performed:
  - Creation order: every resource follows its dependencies
  - Listener priorities: unique and within the load balancer's range
  - Subnets: disjoint and inside the VPC block
  - Buckets: exactly one bucket per role
  - Schema: required properties and allowed values of each resource
  - cfn-lint: the generated template passes CloudFormation lint rules

Examples:
    stackplan validate stack.yml
    stackplan validate stack.yml --format json
    stackplan validate stack.yml --skip-lint`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := runValidate(cmd, opts, args[0], skipLint)
			if err := outputValidateResult(cmd.OutOrStdout(), result, outputFormat); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&skipLint, "skip-lint", false, "Skip the schema check and cfn-lint on the generated template")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *globalOptions, path string, skipLint bool) stackplan.ValidateResult {
	cfg, p, err := opts.loadPlan(cmd.Context(), path)
	if err != nil {
		return stackplan.ValidateResult{Errors: []string{err.Error()}}
	}

	var tmpl *stackplan.Template
	if !skipLint {
		if tmpl, err = p.Template(); err != nil {
			return stackplan.ValidateResult{Resources: len(p.Nodes), Errors: []string{err.Error()}}
		}
	}

	checked, err := validation.Validate(p, cfg, tmpl)
	if err != nil {
		return stackplan.ValidateResult{Resources: len(p.Nodes), Errors: []string{err.Error()}}
	}

	result := stackplan.ValidateResult{
		Success:   checked.Passed(),
		Resources: len(p.Nodes),
		Errors:    checked.PlanResult.Messages(),
		Warnings:  checked.PlanResult.Warnings,
	}
	if schema := checked.SchemaResult; schema != nil {
		for _, e := range schema.Errors {
			result.Errors = append(result.Errors, e.String())
		}
		for _, w := range schema.Warnings {
			result.Warnings = append(result.Warnings, w.String())
		}
	}
	if lint := checked.CfnLintResult; lint != nil {
		result.Errors = append(result.Errors, lint.Errors...)
		result.Warnings = append(result.Warnings, lint.Warnings...)
	}
	return result
}

func outputValidateResult(w io.Writer, result stackplan.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
