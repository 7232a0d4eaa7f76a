package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	stackplan "github.com/lex00/stackplan-aws-go"
)

func newPlanCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "plan <config>",
		Short: "Show the ordered resource plan",
		Long: `Plan reads a stack configuration and prints every planned resource in
creation order, with its type, properties and dependencies, along with the
subnet layout, listener priorities and enabled subsystems.

Examples:
    stackplan plan stack.yml
    stackplan plan stack.yml --format yaml
    stackplan plan stack.yml --offline --zones us-east-1a,us-east-1b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := opts.loadPlan(cmd.Context(), args[0])
			if err != nil {
				result := stackplan.PlanResult{Success: false, Errors: []string{err.Error()}}
				_ = writePlanResult(cmd.OutOrStdout(), result, outputFormat, "")
				return fmt.Errorf("plan failed")
			}
			return writePlanResult(cmd.OutOrStdout(), p.Result(), outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func writePlanResult(w io.Writer, result stackplan.PlanResult, format, outputFile string) error {
	var data []byte
	var err error

	switch format {
	case "json":
		data, err = json.MarshalIndent(result, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}

	return writeOutput(w, data, outputFile)
}

// writeOutput writes data to outputFile, or to w when no file is given.
func writeOutput(w io.Writer, data []byte, outputFile string) error {
	if outputFile == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	return os.WriteFile(outputFile, data, 0644)
}
