package planner

import (
	"fmt"
	"strconv"
	"strings"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// Build environment of every pipeline.
const (
	buildImage       = "aws/codebuild/standard:7.0"
	buildComputeType = "BUILD_GENERAL1_SMALL"

	sourceArtifact = "app-source"
	buildArtifact  = "app-build"
)

var pipelineActions = []string{
	"codecommit:CancelUploadArchive",
	"codecommit:GetBranch",
	"codecommit:GetCommit",
	"codecommit:GetUploadArchiveStatus",
	"codecommit:UploadArchive",
	"codebuild:BatchGetBuilds",
	"codebuild:StartBuild",
	"ecs:*",
	"elasticloadbalancing:*",
	"autoscaling:*",
	"cloudwatch:*",
	"s3:*",
	"sns:*",
	"sqs:*",
	"ec2:*",
}

var buildActions = []string{
	"logs:CreateLogGroup",
	"logs:CreateLogStream",
	"logs:PutLogEvents",
	"s3:GetObject",
	"s3:GetObjectVersion",
	"s3:PutObject",
	"ecr:GetAuthorizationToken",
	"ecr:BatchCheckLayerAvailability",
	"ecr:GetDownloadUrlForLayer",
	"ecr:BatchGetImage",
	"ecr:InitiateLayerUpload",
	"ecr:UploadLayerPart",
	"ecr:CompleteLayerUpload",
	"ecr:PutImage",
}

// pipelines plans the source repositories and, per pipeline, a build
// project, a source → build → deploy pipeline and the rule starting it on
// commits to the watched branch.
func (r *run) pipelines() error {
	if err := r.requireBucketRoles(); err != nil {
		return err
	}

	repos := make(map[string]string, len(r.cfg.CommitRepo.Repos))
	for _, repo := range r.cfg.CommitRepo.Repos {
		if repo.Name == "" {
			return fmt.Errorf("%w: source repository without a name", stackplan.ErrConfigurationIncomplete)
		}
		if _, dup := repos[repo.Name]; dup {
			return fmt.Errorf("%w: source repository %q declared twice", stackplan.ErrDuplicateIdentifier, repo.Name)
		}
		id := r.sourceRepoID(repo.Name)
		if err := r.add(id, stackplan.KindPipeline, resource.CodeCommitRepository{
			RepositoryName:        repo.Name,
			RepositoryDescription: repo.Description,
		}); err != nil {
			return err
		}
		repos[repo.Name] = id
	}

	pipelines, err := ident.Merge("pipeline", r.cfg.CodePipeline.Pipelines, r.cfg.CodePipeline.Discovered,
		func(p config.Pipeline) string { return p.Name }, func(p config.Pipeline) string { return p.Source })
	if err != nil {
		return err
	}
	if len(pipelines) == 0 {
		return nil
	}
	artifacts, err := r.bucket(config.BucketArtifacts, "codepipeline")
	if err != nil {
		return err
	}

	for _, p := range pipelines {
		if err := r.pipeline(p, repos, artifacts); err != nil {
			return fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
	}
	return nil
}

func (r *run) pipeline(p config.Pipeline, repos map[string]string, artifacts string) error {
	task, ok := r.services.tasks[p.TaskNameReference]
	if !ok {
		return fmt.Errorf("%w: task %q is not defined", stackplan.ErrMissingReference, p.TaskNameReference)
	}
	service, ok := r.services.services[p.ServiceNameReference]
	if !ok {
		return fmt.Errorf("%w: service %q is not defined", stackplan.ErrMissingReference, p.ServiceNameReference)
	}
	repo, ok := repos[p.RepoNameReference]
	if !ok {
		return fmt.Errorf("%w: source repository %q is not defined", stackplan.ErrMissingReference, p.RepoNameReference)
	}

	logGroup := r.pipelineID(p.Name, "log group")
	if err := r.add(logGroup, stackplan.KindPipeline, resource.LogGroup{
		LogGroupName:    "/codebuild/" + p.Name,
		RetentionInDays: logRetentionDays,
	}); err != nil {
		return err
	}

	buildRole := r.pipelineID(p.Name, "build role")
	if err := r.add(buildRole, stackplan.KindIdentity, resource.Role{
		Description:              "Builds of pipeline " + p.Name,
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("codebuild.amazonaws.com"),
		Policies: []resource.InlinePolicy{{
			PolicyName:     "build",
			PolicyDocument: intrinsics.Policy(intrinsics.Allow(buildActions)),
		}},
	}); err != nil {
		return err
	}

	pipelineRole := r.pipelineID(p.Name, "role")
	if err := r.add(pipelineRole, stackplan.KindIdentity, resource.Role{
		Description:              "Pipeline " + p.Name,
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("codepipeline.amazonaws.com"),
		Policies: []resource.InlinePolicy{{
			PolicyName: "pipeline",
			PolicyDocument: intrinsics.Policy(
				intrinsics.PolicyStatement{
					Effect:   "Allow",
					Action:   "iam:PassRole",
					Resource: "*",
					Condition: intrinsics.Json{
						intrinsics.StringEqualsIfExists: map[string]any{
							"iam:PassedToService": []string{"ec2.amazonaws.com", "ecs-tasks.amazonaws.com"},
						},
					},
				},
				intrinsics.Allow(pipelineActions),
			),
		}},
	}); err != nil {
		return err
	}

	env := []resource.EnvironmentVariable{
		{Name: "CONTAINER_NAME", Type: "PLAINTEXT", Value: task.Name},
	}
	buildDeps := []string{buildRole, logGroup}
	if ecr, ok := r.services.repositories[task.Name]; ok {
		env = append(env, resource.EnvironmentVariable{
			Name: "REPOSITORY_URI", Type: "PLAINTEXT", Value: intrinsics.Attr(ecr, "RepositoryUri"),
		})
		buildDeps = append(buildDeps, ecr)
	}

	project := r.pipelineID(p.Name, "build")
	if err := r.add(project, stackplan.KindPipeline, resource.Project{
		Name:        p.Name + "-build",
		ServiceRole: intrinsics.Attr(buildRole, "Arn"),
		Artifacts:   resource.ProjectArtifacts{Type: "CODEPIPELINE"},
		Source:      resource.ProjectSource{Type: "CODEPIPELINE"},
		Environment: resource.ProjectEnvironment{
			ComputeType:          buildComputeType,
			Image:                buildImage,
			Type:                 "LINUX_CONTAINER",
			PrivilegedMode:       true,
			EnvironmentVariables: env,
		},
		LogsConfig: &resource.LogsConfig{CloudWatchLogs: &resource.CloudWatchLogs{
			Status:    "ENABLED",
			GroupName: intrinsics.RefTo(logGroup),
		}},
	}, buildDeps...); err != nil {
		return err
	}

	id := r.pipelineID(p.Name)
	if err := r.add(id, stackplan.KindPipeline, resource.Pipeline{
		Name:    p.Name,
		RoleArn: intrinsics.Attr(pipelineRole, "Arn"),
		ArtifactStore: resource.ArtifactStore{
			Type:     "S3",
			Location: intrinsics.RefTo(artifacts),
		},
		Stages: pipelineStages(p, project, r.cfg.ECS.ClusterName),
	}, pipelineRole, buildRole, project, repo, service, artifacts); err != nil {
		return err
	}

	watchRole := r.pipelineID(p.Name, "watch role")
	if err := r.add(watchRole, stackplan.KindIdentity, resource.Role{
		Description:              "Starts pipeline " + p.Name + " on commits",
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("events.amazonaws.com"),
		Policies: []resource.InlinePolicy{{
			PolicyName: "start-pipeline",
			PolicyDocument: intrinsics.Policy(intrinsics.Allow(
				[]string{"codepipeline:StartPipelineExecution"},
				intrinsics.ARN("codepipeline", p.Name),
			)),
		}},
	}); err != nil {
		return err
	}

	return r.add(r.pipelineID(p.Name, "watch"), stackplan.KindPipeline, resource.EventRule{
		Name:        p.Name + "-watch",
		Description: fmt.Sprintf("Starts %s on commits to %s", p.Name, p.BranchToWatch),
		State:       "ENABLED",
		EventPattern: map[string]any{
			"source":      []string{"aws.codecommit"},
			"detail-type": []string{"CodeCommit Repository State Change"},
			"resources":   []any{intrinsics.Attr(repo, "Arn")},
			"detail": map[string]any{
				"event":         []string{"referenceCreated", "referenceUpdated"},
				"referenceType": []string{"branch"},
				"referenceName": []string{p.BranchToWatch},
			},
		},
		Targets: []resource.EventTarget{{
			Id:      p.Name,
			Arn:     intrinsics.ARN("codepipeline", p.Name),
			RoleArn: intrinsics.Attr(watchRole, "Arn"),
		}},
	}, id, watchRole, repo)
}

func pipelineStages(p config.Pipeline, project, cluster string) []resource.Stage {
	return []resource.Stage{
		{
			Name: "source-pull",
			Actions: []resource.PipelineAction{{
				Name:         "source",
				ActionTypeId: resource.ActionTypeId{Category: "Source", Owner: "AWS", Provider: "CodeCommit", Version: "1"},
				Configuration: map[string]any{
					"RepositoryName":       p.RepoNameReference,
					"BranchName":           p.BranchToWatch,
					"PollForSourceChanges": false,
				},
				OutputArtifacts: []resource.Artifact{{Name: sourceArtifact}},
				RunOrder:        1,
			}},
		},
		{
			Name: "build",
			Actions: []resource.PipelineAction{{
				Name:            "build",
				ActionTypeId:    resource.ActionTypeId{Category: "Build", Owner: "AWS", Provider: "CodeBuild", Version: "1"},
				Configuration:   map[string]any{"ProjectName": intrinsics.RefTo(project)},
				InputArtifacts:  []resource.Artifact{{Name: sourceArtifact}},
				OutputArtifacts: []resource.Artifact{{Name: buildArtifact}},
				RunOrder:        1,
			}},
		},
		{
			Name: "ecs-deploy",
			Actions: []resource.PipelineAction{{
				Name:         "deploy",
				ActionTypeId: resource.ActionTypeId{Category: "Deploy", Owner: "AWS", Provider: "ECS", Version: "1"},
				Configuration: map[string]any{
					"ClusterName": cluster,
					"ServiceName": p.ServiceNameReference,
					"FileName":    "imagedefinitions.json",
				},
				InputArtifacts: []resource.Artifact{{Name: buildArtifact}},
				RunOrder:       1,
			}},
		},
	}
}

// requireBucketRoles checks that every bucket role is declared once the
// stack has a consumer for them: a pipeline, notifications or the CDN.
func (r *run) requireBucketRoles() error {
	c := r.cfg
	consumers := len(c.CodePipeline.Pipelines) > 0 || len(c.CodePipeline.Discovered) > 0 ||
		c.Notifications != nil || subsystem.Enabled(r.toggles, subsystem.CDN)
	if !consumers {
		return nil
	}
	var missing []string
	for _, role := range config.BucketRoles {
		if _, ok := r.iam.buckets[role]; !ok {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no bucket of type %s", stackplan.ErrConfigurationIncomplete, quoteAll(missing))
	}
	return nil
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ", ")
}
