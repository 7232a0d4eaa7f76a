// Package awsenv resolves the facts a plan needs from the target account
// before planning starts: the availability zones to spread subnets over and
// the remembered suffixes of uniquely named buckets.
//
// Planning itself never calls AWS. With offline set, no client is created
// and every fact is derived locally.
package awsenv

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	stackplan "github.com/lex00/stackplan-aws-go"
	cfgpkg "github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/log"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// DefaultSuffixPrefix is the parameter path under which bucket suffixes
// are remembered.
const DefaultSuffixPrefix = "/stackplan"

// SSMClient defines the parameter store operations used for bucket suffixes.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// EC2Client defines the EC2 operations used to list availability zones.
type EC2Client interface {
	DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error)
}

// Options control how the environment is resolved.
type Options struct {
	Region  string
	Offline bool

	// Zones overrides both the configuration and the account lookup.
	Zones []string

	SuffixPrefix    string
	PersistSuffixes bool
}

// Environment is everything the planner needs from outside the
// configuration.
type Environment struct {
	Region         string
	Zones          []string
	BucketSuffixes map[string]string

	suffixes *SuffixStore
}

// Commit persists the bucket suffixes generated while resolving. Call it
// after the plan built from this environment succeeded.
func (e *Environment) Commit(ctx context.Context) error {
	if e.suffixes == nil {
		return nil
	}
	return e.suffixes.Save(ctx)
}

// Resolver resolves an Environment. Nil clients are created on first use
// unless the resolver is offline.
type Resolver struct {
	opts Options
	ssm  SSMClient
	ec2  EC2Client
}

// NewResolver returns a resolver. Clients may be nil.
func NewResolver(opts Options, ssmClient SSMClient, ec2Client EC2Client) *Resolver {
	if opts.Region == "" {
		opts.Region = DefaultRegion
	}
	if opts.SuffixPrefix == "" {
		opts.SuffixPrefix = DefaultSuffixPrefix
	}
	return &Resolver{opts: opts, ssm: ssmClient, ec2: ec2Client}
}

// Resolve looks up zones and bucket suffixes for cfg.
func (r *Resolver) Resolve(ctx context.Context, cfg *cfgpkg.Config) (*Environment, error) {
	if err := r.connect(ctx); err != nil {
		return nil, err
	}

	zones, err := r.zones(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := &SuffixStore{
		Prefix:  r.opts.SuffixPrefix,
		Persist: r.opts.PersistSuffixes,
	}
	if !r.opts.Offline {
		store.Client = r.ssm
	}
	suffixes, err := store.Resolve(ctx, cfg.Name, cfg.S3.Buckets)
	if err != nil {
		return nil, err
	}

	log.Debug("Resolved environment", "region", r.opts.Region, "zones", strings.Join(zones, ","), "suffixes", len(suffixes))
	return &Environment{Region: r.opts.Region, Zones: zones, BucketSuffixes: suffixes, suffixes: store}, nil
}

func (r *Resolver) connect(ctx context.Context) error {
	if r.opts.Offline || (r.ssm != nil && r.ec2 != nil) {
		return nil
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(r.opts.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	if r.ssm == nil {
		r.ssm = ssm.NewFromConfig(awsCfg)
	}
	if r.ec2 == nil {
		r.ec2 = ec2.NewFromConfig(awsCfg)
	}
	return nil
}

// zones picks, in order: the override, the configured zones, the
// account's available zones, or offline the region's a, b and c zones.
func (r *Resolver) zones(ctx context.Context, cfg *cfgpkg.Config) ([]string, error) {
	switch {
	case len(r.opts.Zones) > 0:
		return r.opts.Zones, nil
	case len(cfg.VPC.Zones) > 0:
		return cfg.VPC.Zones, nil
	case r.opts.Offline:
		return OfflineZones(r.opts.Region), nil
	}

	zones, err := ListZones(ctx, r.ec2)
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: region %s has no available zones", stackplan.ErrConfigurationIncomplete, r.opts.Region)
	}
	return zones, nil
}

// OfflineZones returns the conventional first three zones of a region.
func OfflineZones(region string) []string {
	return []string{region + "a", region + "b", region + "c"}
}
