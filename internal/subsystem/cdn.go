package subsystem

import (
	"fmt"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// AssetsBucketPolicyID is the logical ID of the policy letting the
// distributions read the assets bucket.
const AssetsBucketPolicyID = "AssetsBucketPolicy"

// Origin IDs within a distribution.
const (
	balancerOrigin = "alb"
	assetsOrigin   = "assets"
)

// Cache lifetimes, in seconds.
const (
	minTTL     = 600
	defaultTTL = 86400
	maxTTL     = 31536000
)

var forwardedHeaders = []string{"Accept", "Host", "Origin", "Referer"}

// DistributionID returns the logical ID of a distribution whose name
// collides with no other entry.
func DistributionID(name string) string {
	return ident.LogicalID("cdn", name)
}

// composeCDN adds an origin access identity and a distribution per
// configured distribution, serving the load balancer by default and the
// assets bucket under /assets/*. The handle value is the first
// distribution's domain name.
func composeCDN(ctx Context) (Handle, error) {
	cfg := ctx.Config.CDN
	if err := cfg.Validate(); err != nil {
		return Handle{}, err
	}
	if ctx.LoadBalancer == "" {
		return Handle{}, fmt.Errorf("%w: cdn requires the load balancer", stackplan.ErrMissingReference)
	}
	if ctx.AssetsBucket == "" {
		return Handle{}, fmt.Errorf("%w: cdn requires a bucket of type %q", stackplan.ErrConfigurationIncomplete, "assets")
	}
	g := ctx.Graph

	var (
		first      string
		readers    []any
		identities []string
	)
	for _, d := range cfg.Distributions {
		id := ctx.Names.ID("cdn", d.Name)
		oaiID := ctx.Names.ID("cdn", d.Name, "identity")
		oai := resource.OriginAccessIdentity{
			CloudFrontOriginAccessIdentityConfig: resource.OriginAccessIdentityConfig{
				Comment: fmt.Sprintf("Access to %s assets for %s", ctx.Config.Name, d.Name),
			},
		}
		if err := resource.Add(g, oaiID, stackplan.KindDelivery, oai); err != nil {
			return Handle{}, fmt.Errorf("distribution %q: %w", d.Name, err)
		}
		identities = append(identities, oaiID)
		readers = append(readers, intrinsics.Attr(oaiID, "S3CanonicalUserId"))

		dist := resource.Distribution{DistributionConfig: distributionConfig(d, ctx.LoadBalancer, ctx.AssetsBucket, oaiID)}
		if err := resource.Add(g, id, stackplan.KindDelivery, dist, ctx.LoadBalancer, ctx.AssetsBucket, oaiID); err != nil {
			return Handle{}, fmt.Errorf("distribution %q: %w", d.Name, err)
		}
		if first == "" {
			first = id
		}
	}

	policy := resource.BucketPolicy{
		Bucket: intrinsics.RefTo(ctx.AssetsBucket),
		PolicyDocument: intrinsics.Policy(intrinsics.PolicyStatement{
			Effect:    "Allow",
			Principal: map[string]any{"CanonicalUser": readers},
			Action:    "s3:GetObject",
			Resource:  intrinsics.Subf("${%s.Arn}/*", ctx.AssetsBucket),
		}),
	}
	deps := append([]string{ctx.AssetsBucket}, identities...)
	if err := resource.Add(g, AssetsBucketPolicyID, stackplan.KindDelivery, policy, deps...); err != nil {
		return Handle{}, err
	}

	return Present(first, intrinsics.Attr(first, "DomainName"), nil), nil
}

func distributionConfig(d config.Distribution, balancer, bucket, oai string) resource.DistributionConfig {
	methods := []string{"GET", "HEAD"}
	if d.EnablePostRequests {
		methods = []string{"GET", "HEAD", "OPTIONS", "PUT", "POST", "PATCH", "DELETE"}
	}

	dc := resource.DistributionConfig{
		Comment:     d.Name,
		Enabled:     true,
		Aliases:     d.CNames,
		PriceClass:  d.PriceClass,
		HttpVersion: "http2",
		Origins: []resource.Origin{
			{
				Id:         balancerOrigin,
				DomainName: intrinsics.Attr(balancer, "DNSName"),
				CustomOriginConfig: &resource.CustomOriginConfig{
					HTTPPort:             80,
					HTTPSPort:            443,
					OriginProtocolPolicy: "match-viewer",
				},
			},
			{
				Id:         assetsOrigin,
				DomainName: intrinsics.Attr(bucket, "RegionalDomainName"),
				S3OriginConfig: &resource.S3OriginConfig{
					OriginAccessIdentity: intrinsics.Subf("origin-access-identity/cloudfront/${%s}", oai),
				},
			},
		},
		DefaultCacheBehavior: cacheBehavior("", balancerOrigin, methods),
		CacheBehaviors:       []resource.CacheBehavior{cacheBehavior("/assets/*", assetsOrigin, []string{"GET", "HEAD"})},
	}
	if d.CertificateArn != "" {
		dc.ViewerCertificate = &resource.ViewerCertificate{
			AcmCertificateArn:      d.CertificateArn,
			SslSupportMethod:       "sni-only",
			MinimumProtocolVersion: "TLSv1.2_2021",
		}
	}
	return dc
}

func cacheBehavior(path, origin string, methods []string) resource.CacheBehavior {
	return resource.CacheBehavior{
		PathPattern:          path,
		TargetOriginId:       origin,
		ViewerProtocolPolicy: "redirect-to-https",
		AllowedMethods:       methods,
		CachedMethods:        []string{"GET", "HEAD"},
		Compress:             true,
		MinTTL:               minTTL,
		DefaultTTL:           defaultTTL,
		MaxTTL:               maxTTL,
		ForwardedValues: resource.ForwardedValues{
			QueryString: resource.Bool(true),
			Cookies:     &resource.Cookies{Forward: "all"},
			Headers:     forwardedHeaders,
		},
	}
}
