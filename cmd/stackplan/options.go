package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/stackplan-aws-go/internal/awsenv"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/log"
	"github.com/lex00/stackplan-aws-go/internal/planner"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel        string
	logFormat       string
	region          string
	offline         bool
	zones           []string
	suffixPrefix    string
	persistSuffixes bool
}

func (o *globalOptions) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&o.logFormat, "log-format", "console", "Log format: console or json")
	flags.StringVar(&o.region, "region", awsenv.DefaultRegion, "AWS region to plan for")
	flags.BoolVar(&o.offline, "offline", false, "Plan without calling AWS (derived zones and bucket suffixes)")
	flags.StringSliceVar(&o.zones, "zones", nil, "Availability zones to place subnets in, overriding the config")
	flags.StringVar(&o.suffixPrefix, "suffix-prefix", awsenv.DefaultSuffixPrefix, "Parameter store path for remembered bucket suffixes")
	flags.BoolVar(&o.persistSuffixes, "persist-suffixes", false, "Write newly generated bucket suffixes to the parameter store")
}

func (o *globalOptions) configureLogging() {
	log.Configure(o.logLevel, o.logFormat)
}

func (o *globalOptions) resolver() *awsenv.Resolver {
	return awsenv.NewResolver(awsenv.Options{
		Region:          o.region,
		Offline:         o.offline,
		Zones:           o.zones,
		SuffixPrefix:    o.suffixPrefix,
		PersistSuffixes: o.persistSuffixes,
	}, nil, nil)
}

// loadPlan loads the configuration at path, resolves its environment and
// plans it. Generated bucket suffixes are persisted only once planning
// succeeds.
func (o *globalOptions) loadPlan(ctx context.Context, path string) (*config.Config, *planner.Plan, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	env, err := o.resolver().Resolve(ctx, cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("resolving environment: %w", err)
	}

	p, err := planner.New().Plan(ctx, planner.Inputs{
		Config:         cfg,
		Zones:          env.Zones,
		BucketSuffixes: env.BucketSuffixes,
	})
	if err != nil {
		return cfg, nil, err
	}
	if err := env.Commit(ctx); err != nil {
		return cfg, nil, fmt.Errorf("persisting bucket suffixes: %w", err)
	}
	return cfg, p, nil
}
