package subsystem

import (
	"fmt"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// CacheSubnetGroupID is the logical ID of the cache subnet group.
const CacheSubnetGroupID = "CacheSubnetGroup"

// CacheClusterID returns the logical ID of a cache cluster whose name
// collides with no other entry.
func CacheClusterID(name string) string {
	return ident.LogicalID("cache", name)
}

// composeCache adds one cluster per configured cache and a parameter
// publishing each endpoint. The handle refers to the first cluster.
func composeCache(ctx Context) (Handle, error) {
	cfg := ctx.Config.Cache
	if err := cfg.Validate(); err != nil {
		return Handle{}, err
	}
	sg, err := ctx.securityGroup(Cache)
	if err != nil {
		return Handle{}, err
	}
	g := ctx.Graph

	subnetIDs := make([]any, len(ctx.Subnets))
	for i, s := range ctx.Subnets {
		subnetIDs[i] = intrinsics.RefTo(s)
	}
	subnetGroup := resource.CacheSubnetGroup{
		CacheSubnetGroupName: ctx.Config.Name + "-cache",
		Description:          "Cache subnets for " + ctx.Config.Name,
		SubnetIds:            subnetIDs,
	}
	if err := resource.Add(g, CacheSubnetGroupID, stackplan.KindCache, subnetGroup, ctx.Subnets...); err != nil {
		return Handle{}, err
	}

	var (
		first    string
		endpoint any
		params   = make(map[string]string, len(cfg.Clusters))
	)
	for _, cl := range cfg.Clusters {
		id := ctx.Names.ID("cache", cl.Name)
		cluster := resource.CacheCluster{
			ClusterName:          cl.Name,
			CacheNodeType:        cl.InstanceType,
			NumCacheNodes:        cl.ClusterSize,
			Engine:               cl.Engine,
			CacheSubnetGroupName: intrinsics.RefTo(CacheSubnetGroupID),
			VpcSecurityGroupIds:  []any{intrinsics.Attr(sg, "GroupId")},
		}
		if err := resource.Add(g, id, stackplan.KindCache, cluster, CacheSubnetGroupID, sg); err != nil {
			return Handle{}, fmt.Errorf("cache cluster %q: %w", cl.Name, err)
		}

		address := intrinsics.Attr(id, cluster.EndpointAttribute())
		if _, dup := params[cl.HostParamName]; dup {
			return Handle{}, fmt.Errorf("%w: cache parameter %q is published twice",
				stackplan.ErrDuplicateIdentifier, cl.HostParamName)
		}
		paramID := ctx.Names.ID("cache", cl.Name, "host parameter")
		if err := publish(ctx, paramID, cl.HostParamName, address, "Endpoint of cache "+cl.Name, id); err != nil {
			return Handle{}, err
		}
		params[cl.HostParamName] = paramID

		if first == "" {
			first, endpoint = id, address
		}
	}

	return Present(first, endpoint, params), nil
}
