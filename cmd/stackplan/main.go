// Command stackplan plans multi-tier AWS application stacks from YAML.
//
// Usage:
//
//	stackplan plan stack.yml        Show the ordered resource plan
//	stackplan build stack.yml       Generate the CloudFormation template
//	stackplan validate stack.yml    Check the plan and lint the template
//	stackplan version               Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "stackplan",
		Short: "Plan AWS application stacks from YAML",
		Long: `stackplan turns a YAML description of an application stack into an
ordered plan of AWS resources and a CloudFormation template.

A stack is a VPC with public subnets, an ECS cluster behind an application
load balancer, optional shared storage, database, cache and CDN, and build
pipelines that deploy the cluster's services:

    stackplan plan stack.yml
    stackplan build stack.yml -o template.json`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.configureLogging()
		},
	}

	opts.register(rootCmd)

	rootCmd.AddCommand(
		newPlanCmd(opts),
		newBuildCmd(opts),
		newGraphCmd(opts),
		newListCmd(opts),
		newValidateCmd(opts),
		newDiffCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stackplan %s\n", getVersion())
		},
	}
}
