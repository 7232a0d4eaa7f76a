package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/template"
)

func newBuildCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "build <config>",
		Short: "Generate the CloudFormation template",
		Long: `Build plans the stack and renders the plan as a CloudFormation template.

Examples:
    stackplan build stack.yml
    stackplan build stack.yml -o template.json
    stackplan build stack.yml --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, args[0], outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *globalOptions, path, format, outputFile string) error {
	result := buildTemplate(cmd, opts, path)
	return outputResult(cmd.OutOrStdout(), result, format, outputFile)
}

// buildTemplate plans the stack at path and builds its template.
func buildTemplate(cmd *cobra.Command, opts *globalOptions, path string) stackplan.BuildResult {
	_, p, err := opts.loadPlan(cmd.Context(), path)
	if err != nil {
		return stackplan.BuildResult{Success: false, Errors: []string{err.Error()}}
	}

	tmpl, err := p.Template()
	if err != nil {
		return stackplan.BuildResult{Success: false, Errors: []string{err.Error()}}
	}

	resourceNames := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		resourceNames[i] = n.ID
	}

	return stackplan.BuildResult{
		Success:   true,
		Template:  *tmpl,
		Resources: resourceNames,
	}
}

func outputResult(w io.Writer, result stackplan.BuildResult, format, outputFile string) error {
	// Build failures go to stderr.
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("build failed")
	}

	var data []byte
	var err error

	switch format {
	case "json":
		data, err = template.ToJSON(&result.Template)
	case "yaml":
		data, err = template.ToYAML(&result.Template)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if err != nil {
		return err
	}

	return writeOutput(w, data, outputFile)
}
