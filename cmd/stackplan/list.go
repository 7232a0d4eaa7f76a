package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	stackplan "github.com/lex00/stackplan-aws-go"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list <config>",
		Short: "List planned resources in creation order",
		Long: `List plans the stack and prints one line per resource in the order the
resources are created.

Examples:
    stackplan list stack.yml
    stackplan list stack.yml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := opts.loadPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listResult(p.Nodes), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func listResult(nodes []stackplan.ResourceNode) stackplan.ListResult {
	result := stackplan.ListResult{
		Resources: make([]stackplan.ListResource, 0, len(nodes)),
	}
	for _, n := range nodes {
		result.Resources = append(result.Resources, stackplan.ListResource{
			Name:      n.ID,
			Kind:      n.Kind,
			Type:      n.Type,
			DependsOn: n.DependsOn,
		})
	}
	return result
}

func outputListResult(w io.Writer, result stackplan.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources planned.")
			return nil
		}

		fmt.Fprintf(w, "Planned resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			if len(res.DependsOn) == 0 {
				fmt.Fprintf(w, "  %s: %s [%s]\n", res.Name, res.Type, res.Kind)
				continue
			}
			fmt.Fprintf(w, "  %s: %s [%s] <- %s\n", res.Name, res.Type, res.Kind, strings.Join(res.DependsOn, ", "))
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
