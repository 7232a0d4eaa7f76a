package subsystem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/dag"
)

func testContext(t *testing.T, cfg *config.Config) Context {
	t.Helper()
	g := dag.New()
	for _, id := range []string{"Subnet0", "Subnet1", "SecurityGroupEfs", "SecurityGroupRds", "SecurityGroupCache", "LoadBalancer", "AssetsBucket"} {
		require.NoError(t, g.Add(stackplan.ResourceNode{ID: id, Kind: stackplan.KindNetwork, Type: "AWS::Test::Node"}))
	}
	return Context{
		Graph:   g,
		Config:  cfg,
		Subnets: []string{"Subnet0", "Subnet1"},
		SecurityGroups: map[Name]string{
			EFS:   "SecurityGroupEfs",
			RDS:   "SecurityGroupRds",
			Cache: "SecurityGroupCache",
		},
		LoadBalancer: "LoadBalancer",
		AssetsBucket: "AssetsBucket",
	}
}

func fullConfig() *config.Config {
	cfg := &config.Config{
		Name: "demo",
		EFS:  &config.EFS{Enabled: true, Name: "demo-efs"},
		RDS: &config.RDS{
			Enabled:           true,
			InstanceType:      "db.t3.medium",
			ParamFamily:       "aurora-mysql5.7",
			MasterUsernameSSM: "/demo/db/user",
			MasterPasswordSSM: "/demo/db/password",
			DBHostParamName:   "/demo/db/host",
			DBROHostParamName: "/demo/db/ro-host",
			ClusterSize:       2,
		},
		Cache: &config.Cache{Enabled: true, Clusters: []config.CacheCluster{
			{Name: "sessions", InstanceType: "cache.t3.micro", Engine: "redis", HostParamName: "/demo/cache/sessions"},
			{Name: "pages", InstanceType: "cache.t3.micro", Engine: "memcached", HostParamName: "/demo/cache/pages"},
		}},
		CDN: &config.CDN{Enabled: true, Distributions: []config.Distribution{
			{Name: "www", CNames: []string{"www.example.com"}, EnablePostRequests: true},
		}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func kindsOf(g *dag.Graph) map[stackplan.Kind]int {
	kinds := make(map[stackplan.Kind]int)
	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		kinds[n.Kind]++
	}
	return kinds
}

func TestToggles(t *testing.T) {
	cfg := &config.Config{
		RDS:   &config.RDS{Enabled: false},
		Cache: &config.Cache{Enabled: true},
	}
	toggles := Toggles(cfg)
	assert.Equal(t, []Toggle{
		{Name: EFS, Enabled: false},
		{Name: RDS, Enabled: false},
		{Name: Cache, Enabled: true},
		{Name: CDN, Enabled: false},
	}, toggles)

	assert.True(t, Enabled(toggles, Cache))
	assert.False(t, Enabled(toggles, RDS))
	assert.Equal(t, []Toggle{{Name: RDS}, {Name: CDN}}, Select(toggles, CDN, RDS))
}

func TestHandle(t *testing.T) {
	absent := Absent()
	assert.False(t, absent.IsPresent())
	_, ok := absent.Value()
	assert.False(t, ok)
	_, ok = absent.Node()
	assert.False(t, ok)
	assert.Empty(t, absent.Params())

	present := Present("DatabaseCluster", "endpoint", map[string]string{"/db/host": "DatabaseHostParameter"})
	v, ok := present.Value()
	assert.True(t, ok)
	assert.Equal(t, "endpoint", v)
	node, _ := present.Node()
	assert.Equal(t, "DatabaseCluster", node)

	params := present.Params()
	params["/other"] = "x"
	assert.Len(t, present.Params(), 1)

	handles := Handles{RDS: present}
	assert.True(t, handles.Get(RDS).IsPresent())
	assert.False(t, handles.Get(CDN).IsPresent())
	assert.Equal(t, []Name{RDS}, handles.Present())
}

func TestCompose_AllDisabled(t *testing.T) {
	cfg := &config.Config{Name: "demo"}
	ctx := testContext(t, cfg)
	before := ctx.Graph.Len()

	handles, err := NewComposer().Compose(Toggles(cfg), ctx)
	require.NoError(t, err)

	assert.Equal(t, before, ctx.Graph.Len())
	for _, n := range Names {
		assert.False(t, handles.Get(n).IsPresent(), n)
	}
	kinds := kindsOf(ctx.Graph)
	for _, k := range []stackplan.Kind{stackplan.KindStorage, stackplan.KindDatabase, stackplan.KindCache, stackplan.KindDelivery, stackplan.KindParameter} {
		assert.Zero(t, kinds[k], k)
	}
}

func TestCompose_RDSDisabled(t *testing.T) {
	cfg := fullConfig()
	cfg.RDS.Enabled = false
	ctx := testContext(t, cfg)

	handles, err := NewComposer().Compose(Select(Toggles(cfg), RDS), ctx)
	require.NoError(t, err)

	assert.False(t, handles.Get(RDS).IsPresent())
	assert.Zero(t, kindsOf(ctx.Graph)[stackplan.KindDatabase])
	assert.False(t, ctx.Graph.Has(DatabaseClusterID))
}

func TestCompose_EFS(t *testing.T) {
	cfg := fullConfig()
	ctx := testContext(t, cfg)

	handles, err := NewComposer().Compose(Select(Toggles(cfg), EFS), ctx)
	require.NoError(t, err)

	h := handles.Get(EFS)
	node, ok := h.Node()
	require.True(t, ok)
	assert.Equal(t, FileSystemID, node)

	for _, id := range []string{"MountTarget0", "MountTarget1"} {
		mt, ok := ctx.Graph.Node(id)
		require.True(t, ok, id)
		assert.Contains(t, mt.DependsOn, FileSystemID)
		assert.Contains(t, mt.DependsOn, "SecurityGroupEfs")
	}
	fs, _ := ctx.Graph.Node(FileSystemID)
	assert.Equal(t, false, fs.Properties["Encrypted"])
}

func TestCompose_RDS(t *testing.T) {
	cfg := fullConfig()
	ctx := testContext(t, cfg)

	handles, err := NewComposer().Compose(Select(Toggles(cfg), RDS), ctx)
	require.NoError(t, err)

	h := handles.Get(RDS)
	require.True(t, h.IsPresent())
	v, _ := h.Value()
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{DatabaseClusterID, "Endpoint.Address"}}, toJSONValue(t, v))
	assert.Equal(t, map[string]string{
		"/demo/db/host":    DatabaseHostParamID,
		"/demo/db/ro-host": DatabaseReadHostParamID,
	}, h.Params())

	assert.True(t, ctx.Graph.Reaches(DatabaseHostParamID, DatabaseClusterID))
	assert.True(t, ctx.Graph.Reaches(DatabaseReadHostParamID, DatabaseClusterID))
	assert.True(t, ctx.Graph.Has("DatabaseInstance1"))
	assert.True(t, ctx.Graph.Has("DatabaseInstance2"))

	cluster, _ := ctx.Graph.Node(DatabaseClusterID)
	assert.Equal(t, "demo-cluster", cluster.Properties["DBClusterIdentifier"])
	assert.Equal(t, "{{resolve:ssm:/demo/db/user}}", cluster.Properties["MasterUsername"])
	assert.Equal(t, "{{resolve:ssm-secure:/demo/db/password}}", cluster.Properties["MasterUserPassword"])
}

func TestCompose_RDSIncomplete(t *testing.T) {
	cfg := fullConfig()
	cfg.RDS.ParamFamily = ""
	ctx := testContext(t, cfg)

	_, err := NewComposer().Compose(Select(Toggles(cfg), RDS), ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stackplan.ErrConfigurationIncomplete))
	assert.Contains(t, err.Error(), "paramFamily")
}

func TestCompose_Cache(t *testing.T) {
	cfg := fullConfig()
	ctx := testContext(t, cfg)

	handles, err := NewComposer().Compose(Select(Toggles(cfg), Cache), ctx)
	require.NoError(t, err)

	h := handles.Get(Cache)
	node, _ := h.Node()
	assert.Equal(t, "CacheSessions", node)
	assert.Len(t, h.Params(), 2)

	param, ok := ctx.Graph.Node("CachePagesHostParameter")
	require.True(t, ok)
	assert.Equal(t, []string{"CachePages"}, param.DependsOn)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"CachePages", "ConfigurationEndpoint.Address"}}, param.Properties["Value"])
}

func TestCompose_CacheDuplicateParameter(t *testing.T) {
	cfg := fullConfig()
	cfg.Cache.Clusters[1].HostParamName = cfg.Cache.Clusters[0].HostParamName
	ctx := testContext(t, cfg)

	_, err := NewComposer().Compose(Select(Toggles(cfg), Cache), ctx)
	assert.True(t, errors.Is(err, stackplan.ErrDuplicateIdentifier))
}

func TestCompose_CDN(t *testing.T) {
	cfg := fullConfig()
	ctx := testContext(t, cfg)

	handles, err := NewComposer().Compose(Select(Toggles(cfg), CDN), ctx)
	require.NoError(t, err)

	node, ok := handles.Get(CDN).Node()
	require.True(t, ok)
	assert.Equal(t, "CdnWww", node)

	dist, _ := ctx.Graph.Node("CdnWww")
	assert.Contains(t, dist.DependsOn, "LoadBalancer")
	assert.Contains(t, dist.DependsOn, "AssetsBucket")

	dc := dist.Properties["DistributionConfig"].(map[string]any)
	assert.Equal(t, []any{"www.example.com"}, dc["Aliases"])
	behavior := dc["DefaultCacheBehavior"].(map[string]any)
	assert.Len(t, behavior["AllowedMethods"], 7)
	assert.NotContains(t, dc, "ViewerCertificate")

	assert.True(t, ctx.Graph.Has(AssetsBucketPolicyID))
}

func TestCompose_CDNNeedsBalancer(t *testing.T) {
	cfg := fullConfig()
	ctx := testContext(t, cfg)
	ctx.LoadBalancer = ""

	_, err := NewComposer().Compose(Select(Toggles(cfg), CDN), ctx)
	assert.True(t, errors.Is(err, stackplan.ErrMissingReference))
}

func TestCompose_MissingSecurityGroup(t *testing.T) {
	cfg := fullConfig()
	ctx := testContext(t, cfg)
	delete(ctx.SecurityGroups, EFS)

	_, err := NewComposer().Compose(Select(Toggles(cfg), EFS), ctx)
	assert.True(t, errors.Is(err, stackplan.ErrMissingReference))
}

func TestCompose_UnknownSubsystem(t *testing.T) {
	ctx := testContext(t, fullConfig())
	_, err := NewComposer().Compose([]Toggle{{Name: "queue", Enabled: true}}, ctx)
	assert.True(t, errors.Is(err, stackplan.ErrInvalidConfiguration))
}

func TestComposer_Register(t *testing.T) {
	c := NewComposer()
	c.Register(EFS, func(Context) (Handle, error) {
		return Present("Custom", "fs-123", nil), nil
	})
	handles, err := c.Compose([]Toggle{{Name: EFS, Enabled: true}}, testContext(t, fullConfig()))
	require.NoError(t, err)
	v, _ := handles.Get(EFS).Value()
	assert.Equal(t, "fs-123", v)
}
