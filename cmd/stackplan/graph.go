package main

import (
	"fmt"

	"github.com/spf13/cobra"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/graph"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat  string
		clusterByKind bool
		kinds         []string
	)

	cmd := &cobra.Command{
		Use:   "graph <config>",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing the planned resources and
their dependencies.

The output can be rendered with Graphviz:
    stackplan graph stack.yml | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    stackplan graph stack.yml -f mermaid

Examples:
    stackplan graph stack.yml
    stackplan graph stack.yml -c                    # cluster by kind
    stackplan graph stack.yml --kinds network,balancer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			_, p, err := opts.loadPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:        graphFormat,
				ClusterByKind: clusterByKind,
			}
			for _, k := range kinds {
				gen.Kinds = append(gen.Kinds, stackplan.Kind(k))
			}

			return gen.Generate(p.Nodes, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&clusterByKind, "cluster", "c", false, "Cluster resources by kind")
	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "Only include resources of these kinds")

	return cmd
}
