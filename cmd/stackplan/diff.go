package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/differ"
)

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
		templates    bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare the templates of two stack configurations",
		Long: `Diff builds the template of each configuration and lists the resources
that were added, removed or modified. Modifications that make CloudFormation
replace a resource, such as renaming a bucket, are marked as replacements.

With --templates the arguments are CloudFormation templates (JSON or YAML)
rather than stack configurations.

Examples:
    stackplan diff stack.yml stack-next.yml
    stackplan diff old.json new.yaml --templates
    stackplan diff stack.yml stack-next.yml --format json --ignore-order`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			diffOpts := differ.Options{IgnoreOrder: ignoreOrder}

			var (
				result *differ.Result
				err    error
			)
			if templates {
				result, err = differ.CompareFiles(args[0], args[1], diffOpts)
			} else {
				result, err = compareConfigs(cmd, opts, args[0], args[1], diffOpts)
			}
			if err != nil {
				return err
			}

			return outputDiffResult(cmd.OutOrStdout(), stackplan.DiffResult{
				Success: true,
				Diff:    result.Diff,
				Summary: result.Summary,
			}, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list order when comparing properties")
	cmd.Flags().BoolVar(&templates, "templates", false, "Arguments are templates rather than stack configurations")

	return cmd
}

func compareConfigs(cmd *cobra.Command, opts *globalOptions, oldPath, newPath string, diffOpts differ.Options) (*differ.Result, error) {
	old := buildTemplate(cmd, opts, oldPath)
	if !old.Success {
		return nil, fmt.Errorf("%s: %s", oldPath, strings.Join(old.Errors, "; "))
	}
	next := buildTemplate(cmd, opts, newPath)
	if !next.Success {
		return nil, fmt.Errorf("%s: %s", newPath, strings.Join(next.Errors, "; "))
	}
	return differ.Compare(&old.Template, &next.Template, diffOpts)
}

func outputDiffResult(w io.Writer, result stackplan.DiffResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Summary.Total == 0 {
			fmt.Fprintln(w, "No differences.")
			return nil
		}

		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			marker := "~"
			if e.Replacement {
				marker = "!"
			}
			fmt.Fprintf(w, "%s %s (%s)\n", marker, e.Resource, e.Type)
			for _, c := range e.Changes {
				fmt.Fprintf(w, "    %s\n", c)
			}
		}
		fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n",
			result.Summary.Added, result.Summary.Removed, result.Summary.Modified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
