package planner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
)

var testZones = []string{"us-east-1a", "us-east-1b", "us-east-1c"}

const baseConfig = `
name: demo
vpc:
  baseAddress: 10.0.0.0
  cidrSize: 16
  baseCidrSize: 24
  numPublicSubnets: 3
ecs:
  clusterName: demo-cluster
  tasks:
    - name: web
      createECR: true
      containerPort: 80
      params:
        DB_HOST: /demo/db/host
    - name: api
      imageURI: nginx:latest
      containerPort: 8080
      variables:
        MODE: api
  services:
    - name: web
      taskNameReference: web
      hosts: [www.example.com]
    - name: api
      taskNameReference: api
      hosts: [api.example.com]
      listenerPort: 8080
scaling:
  desiredSize: 2
  minSize: 1
  maxSize: 4
  launchTemplate:
    name: demo-launch
alb:
  name: demo-alb
s3:
  buckets:
    - {name: demo-assets, type: assets}
    - {name: demo-artifacts, type: artifacts}
    - {name: demo-logs, type: logs}
`

const subsystemsConfig = `
efs:
  enabled: true
  name: demo-efs
rds:
  enabled: true
  instanceType: db.t3.medium
  paramFamily: aurora-mysql5.7
  masterUsernameSSM: /demo/db/user
  masterPasswordSSM: /demo/db/password
  dbHostParamName: /demo/db/host
  dbROHostParamName: /demo/db/ro-host
cache:
  enabled: true
  clusters:
    - {name: sessions, instanceType: cache.t3.micro, engine: redis, hostParamName: /demo/cache/sessions}
cdn:
  enabled: true
  distributions:
    - {name: www}
commitRepo:
  repos:
    - {name: web-repo}
codepipeline:
  pipelines:
    - {name: web-pipeline, taskNameReference: web, repoNameReference: web-repo}
notifications:
  functionName: notify
  slackChannel: "#deploys"
`

func parse(t *testing.T, doc string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg
}

func plan(t *testing.T, cfg *config.Config) *Plan {
	t.Helper()
	p, err := New().Plan(context.Background(), Inputs{Config: cfg, Zones: testZones})
	require.NoError(t, err)
	return p
}

func planErr(t *testing.T, cfg *config.Config) *PlanError {
	t.Helper()
	_, err := New().Plan(context.Background(), Inputs{Config: cfg, Zones: testZones})
	require.Error(t, err)
	var planErr *PlanError
	require.True(t, errors.As(err, &planErr), "got %T: %v", err, err)
	return planErr
}

func byID(p *Plan) map[string]stackplan.ResourceNode {
	nodes := make(map[string]stackplan.ResourceNode, len(p.Nodes))
	for _, n := range p.Nodes {
		nodes[n.ID] = n
	}
	return nodes
}

func kinds(p *Plan) map[stackplan.Kind]int {
	counts := make(map[stackplan.Kind]int)
	for _, n := range p.Nodes {
		counts[n.Kind]++
	}
	return counts
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func assertDependsOn(t *testing.T, nodes map[string]stackplan.ResourceNode, id string, deps ...string) {
	t.Helper()
	n, ok := nodes[id]
	require.True(t, ok, "node %s not planned", id)
	for _, dep := range deps {
		assert.Contains(t, n.DependsOn, dep, "%s should depend on %s", id, dep)
	}
}

func TestPlan_Subnets(t *testing.T) {
	p := plan(t, parse(t, baseConfig))

	require.Len(t, p.Subnets, 3)
	for i, want := range []string{"10.0.1.0/24", "10.0.2.0/24", "10.0.3.0/24"} {
		assert.Equal(t, want, p.Subnets[i].Block.String())
		assert.Equal(t, testZones[i], p.Subnets[i].Zone)
		assert.Equal(t, i, p.Subnets[i].Ordinal)
	}
	assert.Equal(t, []string{"Subnet0", "Subnet1", "Subnet2"}, p.SubnetIDs)

	nodes := byID(p)
	assert.Equal(t, "10.0.2.0/24", nodes["Subnet1"].Properties["CidrBlock"])
	assert.Equal(t, "us-east-1b", nodes["Subnet1"].Properties["AvailabilityZone"])
}

func TestPlan_ListenerPriorities(t *testing.T) {
	p := plan(t, parse(t, baseConfig))
	assert.Equal(t, map[string]int{"web": 1, "api": 2}, p.Priorities)
	assert.Equal(t, map[string]string{"web": "demo-web", "api": "demo-api"}, p.TargetNames)

	nodes := byID(p)
	assert.Equal(t, 1, nodes["ListenerRuleWeb"].Properties["Priority"])
	assert.Equal(t, 2, nodes["ListenerRuleApi"].Properties["Priority"])
}

func TestPlan_SubsystemsDisabled(t *testing.T) {
	cfg := parse(t, baseConfig+"rds:\n  enabled: false\n")
	p := plan(t, cfg)

	counts := kinds(p)
	for _, k := range []stackplan.Kind{stackplan.KindStorage, stackplan.KindDatabase, stackplan.KindCache, stackplan.KindDelivery, stackplan.KindParameter, stackplan.KindNotification} {
		assert.Zero(t, counts[k], "unexpected %s nodes", k)
	}
	assert.False(t, p.Handles.Get(subsystem.RDS).IsPresent())
	assert.Empty(t, p.Handles.Present())

	// The launch template was still planned against the absent storage handle.
	nodes := byID(p)
	lt, ok := nodes[LaunchTemplateID]
	require.True(t, ok)
	assert.NotContains(t, lt.DependsOn, subsystem.FileSystemID)
	assert.NotContains(t, p.Outputs, "DatabaseEndpoint")
}

func TestPlan_MissingTask(t *testing.T) {
	cfg := parse(t, baseConfig)
	cfg.ECS.Services = append(cfg.ECS.Services, config.Service{
		Name:              "jobs",
		TaskNameReference: "worker",
		Hosts:             []string{"jobs.example.com"},
	})

	err := planErr(t, cfg)
	assert.Equal(t, StageTasksAndServices, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrMissingReference))
	assert.Contains(t, err.Error(), `"worker"`)
}

func TestPlan_DuplicateDiscoveredTask(t *testing.T) {
	cfg := parse(t, baseConfig)
	cfg.ECS.DiscoveredTasks = []config.Task{{Name: "web", ImageURI: "nginx", Source: "tasks/web.yml"}}

	err := planErr(t, cfg)
	assert.Equal(t, StageTasksAndServices, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrDuplicateIdentifier))
	assert.Contains(t, err.Error(), `task "web" declared in the config file and tasks/web.yml`)
}

func TestPlan_InvalidConfig(t *testing.T) {
	cfg := parse(t, baseConfig)
	cfg.Name = ""

	err := planErr(t, cfg)
	assert.Equal(t, StageNetwork, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrConfigurationIncomplete))

	_, plainErr := New().Plan(context.Background(), Inputs{})
	assert.True(t, errors.Is(plainErr, stackplan.ErrConfigurationIncomplete))
}

func TestPlan_NoZones(t *testing.T) {
	_, err := New().Plan(context.Background(), Inputs{Config: parse(t, baseConfig)})
	var planErr *PlanError
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, StageNetwork, planErr.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrConfigurationIncomplete))
}

func TestPlan_Dependencies(t *testing.T) {
	p := plan(t, parse(t, baseConfig+subsystemsConfig))
	nodes := byID(p)

	assertDependsOn(t, nodes, InternetGatewayID, VpcID)
	assertDependsOn(t, nodes, GatewayAttachmentID, VpcID, InternetGatewayID)
	assertDependsOn(t, nodes, DefaultRouteID, RouteTableID, GatewayAttachmentID)
	assertDependsOn(t, nodes, LoadBalancerID, GatewayAttachmentID, SecurityGroupAlbID, "Subnet0", "Subnet1", "Subnet2")
	assertDependsOn(t, nodes, SecurityGroupEc2ID, SecurityGroupAlbID)
	assertDependsOn(t, nodes, "SecurityGroupRds", SecurityGroupEc2ID)
	assertDependsOn(t, nodes, AutoScalingGroupID, LaunchTemplateID, DefaultTargetGroupID, "TargetGroupWeb", "TargetGroupApi", subsystem.FileSystemID)
	assertDependsOn(t, nodes, "ServiceWeb", "TaskWeb", "TargetGroupWeb", "ListenerRuleWeb", ClusterID, AutoScalingGroupID)
	assertDependsOn(t, nodes, "ListenerRuleWeb", LoadBalancerID, HTTPListenerID, "TargetGroupWeb")
	assertDependsOn(t, nodes, "Listener8080", LoadBalancerID, "TargetGroupApi")
	assertDependsOn(t, nodes, "TaskWeb", ExecutionRoleID, TaskRoleID, "LogGroupWeb", "RepositoryWeb", subsystem.DatabaseHostParamID)
	assertDependsOn(t, nodes, subsystem.DistributionID("www"), LoadBalancerID, "AssetsBucket")
	assertDependsOn(t, nodes, "PipelineWebPipeline", "SourceRepoWebRepo", "ServiceWeb", "ArtifactsBucket", "PipelineWebPipelineBuild")
	assertDependsOn(t, nodes, "PipelineWebPipelineWatch", "PipelineWebPipeline", "SourceRepoWebRepo")
	assertDependsOn(t, nodes, NotifyFunctionID, NotifyRoleID, "ArtifactsBucket")
	assertDependsOn(t, nodes, "NotifyCommitPermission", NotifyFunctionID, "NotifyCommit")

	// The api task reads no published parameter.
	assert.NotContains(t, nodes["TaskApi"].DependsOn, subsystem.DatabaseHostParamID)
}

func TestPlan_CreationOrder(t *testing.T) {
	p := plan(t, parse(t, baseConfig+subsystemsConfig))

	position := make(map[string]int, len(p.Nodes))
	for i, n := range p.Nodes {
		position[n.ID] = i
	}
	for _, n := range p.Nodes {
		for _, dep := range n.DependsOn {
			assert.Less(t, position[dep], position[n.ID], "%s must follow %s", n.ID, dep)
		}
	}
	assert.Equal(t, VpcID, p.Nodes[0].ID)
}

func TestPlan_AllSubsystems(t *testing.T) {
	p := plan(t, parse(t, baseConfig+subsystemsConfig))

	assert.ElementsMatch(t,
		[]subsystem.Name{subsystem.EFS, subsystem.RDS, subsystem.Cache, subsystem.CDN},
		p.Handles.Present())

	counts := kinds(p)
	assert.Positive(t, counts[stackplan.KindStorage])
	assert.Positive(t, counts[stackplan.KindDatabase])
	assert.Positive(t, counts[stackplan.KindCache])
	assert.Positive(t, counts[stackplan.KindDelivery])
	assert.Equal(t, 7, counts[stackplan.KindNotification], "function plus a rule and permission per event")

	assert.Contains(t, p.Outputs, "VpcId")
	assert.Contains(t, p.Outputs, "LoadBalancerDNS")
	assert.Contains(t, p.Outputs, "DatabaseEndpoint")
	assert.Contains(t, p.Outputs, "DistributionDomain")
	require.NotNil(t, p.Outputs["VpcId"].Export)
	assert.Equal(t, "demo-VpcId", p.Outputs["VpcId"].Export.Name)
	assert.Equal(t, map[string]any{"Ref": "Vpc"}, p.Outputs["VpcId"].Value)
}

func TestPlan_UserDataMountsStorageOnlyWhenPresent(t *testing.T) {
	with := byID(plan(t, parse(t, baseConfig+subsystemsConfig)))
	without := byID(plan(t, parse(t, baseConfig)))

	assert.Contains(t, with[LaunchTemplateID].DependsOn, subsystem.FileSystemID)
	assert.Contains(t, toJSON(t, with[LaunchTemplateID].Properties), "amazon-efs-utils")
	assert.NotContains(t, toJSON(t, without[LaunchTemplateID].Properties), "amazon-efs-utils")
	assert.Contains(t, toJSON(t, without[LaunchTemplateID].Properties), "ECS_CLUSTER=demo-cluster")
}

func TestPlan_Certificate(t *testing.T) {
	cfg := parse(t, baseConfig)
	cfg.Security.SSLCertArn = "arn:aws:acm:us-east-1:123456789012:certificate/abc"
	nodes := byID(plan(t, cfg))

	require.Contains(t, nodes, HTTPSListenerID)
	assertDependsOn(t, nodes, "ListenerRuleWeb", HTTPSListenerID)
	assert.Contains(t, toJSON(t, nodes[HTTPListenerID].Properties), "HTTP_301")
	assert.Equal(t, "HTTPS", nodes["Listener8080"].Properties["Protocol"])
}

func TestPlan_PipelineReferences(t *testing.T) {
	cfg := parse(t, baseConfig+subsystemsConfig)
	cfg.CodePipeline.Pipelines[0].RepoNameReference = "missing-repo"

	err := planErr(t, cfg)
	assert.Equal(t, StagePipelines, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrMissingReference))
	assert.Contains(t, err.Error(), "missing-repo")
}

func TestPlan_PipelineNeedsArtifactsBucket(t *testing.T) {
	cfg := parse(t, baseConfig+subsystemsConfig)
	cfg.S3.Buckets = cfg.S3.Buckets[:1]

	err := planErr(t, cfg)
	assert.Equal(t, StagePipelines, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrConfigurationIncomplete))
	assert.Contains(t, err.Error(), `no bucket of type "artifacts", "logs"`)
}

func TestPlan_MissingLogsBucket(t *testing.T) {
	cfg := parse(t, baseConfig+subsystemsConfig)
	cfg.S3.Buckets = cfg.S3.Buckets[:2]

	err := planErr(t, cfg)
	assert.Equal(t, StagePipelines, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrConfigurationIncomplete))
	assert.Contains(t, err.Error(), `no bucket of type "logs"`)

	// Without a pipeline, notifications or CDN no bucket role is needed.
	bare := parse(t, baseConfig)
	bare.S3.Buckets = bare.S3.Buckets[:1]
	p := plan(t, bare)
	assert.Contains(t, byID(p), "AssetsBucket")
	assert.NotContains(t, byID(p), "LogsBucket")
}

func TestPlan_DuplicateBucketRole(t *testing.T) {
	cfg := parse(t, baseConfig)
	cfg.S3.Buckets = append(cfg.S3.Buckets, config.Bucket{Name: "more-logs", Type: config.BucketLogs})

	err := planErr(t, cfg)
	assert.Equal(t, StageIdentity, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrDuplicateIdentifier))
}

func TestPlan_BucketSuffix(t *testing.T) {
	cfg := parse(t, baseConfig)
	cfg.S3.Buckets[0].AddUniqueID = true

	err := planErr(t, cfg)
	assert.Equal(t, StageIdentity, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrConfigurationIncomplete))

	p, planErr := New().Plan(context.Background(), Inputs{
		Config:         cfg,
		Zones:          testZones,
		BucketSuffixes: map[string]string{"demo-assets": "1a2b3c4d"},
	})
	require.NoError(t, planErr)
	assert.Equal(t, "demo-assets-1a2b3c4d", byID(p)["AssetsBucket"].Properties["BucketName"])
}

func TestPlan_AddressSpaceExhausted(t *testing.T) {
	cfg := parse(t, baseConfig)
	cfg.VPC.CidrSize = 24
	cfg.VPC.BaseCidrSize = 24

	err := planErr(t, cfg)
	assert.Equal(t, StageNetwork, err.Stage)
	assert.True(t, errors.Is(err, stackplan.ErrAddressSpaceExhausted))
}

func TestPlan_PipelineNamesDoNotCollide(t *testing.T) {
	const first = "    - {name: web-pipeline, taskNameReference: web, repoNameReference: web-repo}\n"
	doc := strings.Replace(baseConfig+subsystemsConfig, first, first+
		"    - {name: web, taskNameReference: web, repoNameReference: web-repo}\n"+
		"    - {name: web-build, taskNameReference: web, repoNameReference: web-repo}\n", 1)
	cfg := parse(t, doc)
	require.Len(t, cfg.CodePipeline.Pipelines, 3)
	nodes := byID(plan(t, cfg))

	webBuild := ident.NameHash("pipeline", "web-build")
	assert.Equal(t, "AWS::IAM::Role", nodes["PipelineWebBuildRole"].Type)
	assert.Equal(t, "AWS::IAM::Role", nodes["PipelineWebRole"].Type)
	assert.Equal(t, "AWS::IAM::Role", nodes["PipelineWebBuild"+webBuild+"Role"].Type)
	assert.Equal(t, "AWS::CodeBuild::Project", nodes["PipelineWebBuild"].Type)
	assert.Equal(t, "AWS::CodePipeline::Pipeline", nodes["PipelineWeb"].Type)
	assert.Equal(t, "AWS::CodePipeline::Pipeline", nodes["PipelineWebBuild"+webBuild].Type)
	assertDependsOn(t, nodes, "PipelineWebBuild"+webBuild, "PipelineWebBuild"+webBuild+"Role", "PipelineWebBuildBuild")
}

func TestPlan_TaskNamedLikeFixedResource(t *testing.T) {
	cfg := parse(t, strings.Replace(baseConfig, "  services:\n", "    - {name: role, imageURI: nginx:latest}\n  services:\n", 1))
	require.Len(t, cfg.ECS.Tasks, 3)
	nodes := byID(plan(t, cfg))

	assert.Equal(t, "AWS::IAM::Role", nodes[TaskRoleID].Type)
	taskDef := "TaskRole" + ident.NameHash("task", "role")
	assert.Equal(t, "AWS::ECS::TaskDefinition", nodes[taskDef].Type)
	assertDependsOn(t, nodes, taskDef, TaskRoleID, "LogGroupRole")
}

func TestPlan_CacheNamedLikeSubnetGroup(t *testing.T) {
	cfg := parse(t, baseConfig+subsystemsConfig)
	cfg.Cache.Clusters[0].Name = "subnet-group"
	nodes := byID(plan(t, cfg))

	assert.Equal(t, "AWS::ElastiCache::SubnetGroup", nodes[subsystem.CacheSubnetGroupID].Type)
	cluster := "CacheSubnetGroup" + ident.NameHash("cache", "subnet-group")
	assert.Equal(t, "AWS::ElastiCache::CacheCluster", nodes[cluster].Type)
	assertDependsOn(t, nodes, cluster, subsystem.CacheSubnetGroupID)
	assertDependsOn(t, nodes, "CacheSubnetGroupHostParameter", cluster)
}

func TestPlan_Deterministic(t *testing.T) {
	first := plan(t, parse(t, baseConfig+subsystemsConfig))
	for i := 0; i < 5; i++ {
		again := plan(t, parse(t, baseConfig+subsystemsConfig))
		assert.Equal(t, first.Nodes, again.Nodes)
		assert.Equal(t, first.Outputs, again.Outputs)
	}
}

func TestPlan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Plan(ctx, Inputs{Config: parse(t, baseConfig), Zones: testZones})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	var planErr *PlanError
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, StageNetwork, planErr.Stage)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "Network", StageNetwork.String())
	assert.Equal(t, "OptionalDelivery", StageOptionalDelivery.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
