package planner

import (
	"fmt"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

const (
	notifyRuntime = "nodejs20.x"
	notifyHandler = "index.handler"
	notifyTimeout = 30
)

// notifyRule is one event source forwarded to the notify function.
type notifyRule struct {
	event       string
	description string
	pattern     map[string]any
	paths       map[string]string
	template    string
}

var notifyRules = []notifyRule{
	{
		event:       "commit",
		description: "Forwards repository changes to the notify function.",
		pattern:     map[string]any{"source": []string{"aws.codecommit"}},
		paths: map[string]string{
			"name":     "$.detail.repositoryName",
			"commitId": "$.detail.commitId",
			"event":    "$.detail.event",
			"region":   "$.region",
			"branch":   "$.detail.referenceName",
		},
		template: `{"message": "CodeCommit", "status": "<name> : <branch>", ` +
			`"details": "https://console.aws.amazon.com/codesuite/codecommit/repositories/<name>/commit/<commitId>?region=<region>", ` +
			`"name": "<name>", "commitId": "<commitId>"}`,
	},
	{
		event:       "build",
		description: "Forwards build state changes to the notify function.",
		pattern: map[string]any{
			"source":      []string{"aws.codebuild"},
			"detail-type": []string{"CodeBuild Build State Change"},
			"detail": map[string]any{
				"build-status": []string{"IN_PROGRESS", "FAILED", "SUCCEEDED"},
			},
		},
		paths: map[string]string{
			"project": "$.detail.project-name",
			"buildId": "$.detail.build-id",
			"region":  "$.region",
			"status":  "$.detail.build-status",
		},
		template: `{"message": "CodeBuild", "status": "<project> - <status>", ` +
			`"details": "https://console.aws.amazon.com/codesuite/codebuild/projects/<project>/history?region=<region>"}`,
	},
	{
		event:       "ecs",
		description: "Forwards task state changes to the notify function.",
		pattern: map[string]any{
			"source":      []string{"aws.ecs"},
			"detail-type": []string{"ECS Task State Change"},
		},
		paths: map[string]string{
			"name":          "$.detail.containers[0].name",
			"region":        "$.region",
			"desiredStatus": "$.detail.desiredStatus",
			"lastStatus":    "$.detail.lastStatus",
			"clusterArn":    "$.detail.clusterArn",
		},
		template: `{"message": "ECS: <name>", "status": "Last: <lastStatus> - Desired: <desiredStatus>", ` +
			`"details": "https://<region>.console.aws.amazon.com/ecs/home?region=<region>#/clusters"}`,
	},
}

var notifyReadActions = []string{
	"codecommit:BatchGet*",
	"codecommit:BatchDescribe*",
	"codecommit:Get*",
	"codecommit:Describe*",
	"codecommit:List*",
	"codecommit:GitPull",
}

// optionalDelivery composes the CDN and, when configured, the notify
// function with its event rules.
func (r *run) optionalDelivery() error {
	if err := r.compose(subsystem.CDN); err != nil {
		return err
	}
	h := r.handles.Get(subsystem.CDN)
	if v, ok := h.Value(); ok {
		if err := r.output("DistributionDomain", "Domain name of the content distribution", v, false); err != nil {
			return err
		}
	}
	if r.cfg.Notifications == nil {
		return nil
	}
	return r.notifications(*r.cfg.Notifications)
}

func (r *run) notifications(n config.Notifications) error {
	if n.FunctionName == "" {
		return fmt.Errorf("%w: notifications missing functionName", stackplan.ErrConfigurationIncomplete)
	}
	artifacts, err := r.bucket(config.BucketArtifacts, "notifications")
	if err != nil {
		return err
	}

	err = r.add(NotifyRoleID, stackplan.KindIdentity, resource.Role{
		Description:              "Notify function of " + r.cfg.Name,
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("lambda.amazonaws.com"),
		ManagedPolicyArns:        []any{resource.ManagedPolicy("service-role/AWSLambdaBasicExecutionRole")},
		Policies: []resource.InlinePolicy{{
			PolicyName:     "read-repositories",
			PolicyDocument: intrinsics.Policy(intrinsics.Allow(notifyReadActions, intrinsics.ARN("codecommit", "*"))),
		}},
	})
	if err != nil {
		return err
	}

	env := map[string]string{}
	if n.SlackChannel != "" {
		env["slackChannel"] = n.SlackChannel
	}
	if n.SlackURL != "" {
		env["slackURL"] = n.SlackURL
	}
	fn := resource.Function{
		FunctionName: n.FunctionName + "-" + r.cfg.Name,
		Description:  "Posts pipeline, build and task events to the team channel.",
		Handler:      notifyHandler,
		Runtime:      notifyRuntime,
		Role:         intrinsics.Attr(NotifyRoleID, "Arn"),
		Timeout:      notifyTimeout,
		Code:         resource.FunctionCode{S3Bucket: intrinsics.RefTo(artifacts), S3Key: n.CodeKey},
	}
	if len(env) > 0 {
		fn.Environment = &resource.FunctionEnvironment{Variables: env}
	}
	if err := r.add(NotifyFunctionID, stackplan.KindNotification, fn, NotifyRoleID, artifacts); err != nil {
		return err
	}

	for _, rule := range notifyRules {
		id := notifyRuleID(rule.event)
		err := r.add(id, stackplan.KindNotification, resource.EventRule{
			Name:         fmt.Sprintf("%s-%s-watcher", r.cfg.Name, rule.event),
			Description:  rule.description,
			State:        "ENABLED",
			EventPattern: rule.pattern,
			Targets: []resource.EventTarget{{
				Id:  rule.event + "-notify",
				Arn: intrinsics.Attr(NotifyFunctionID, "Arn"),
				InputTransformer: &resource.InputTransformer{
					InputPathsMap: rule.paths,
					InputTemplate: rule.template,
				},
			}},
		}, NotifyFunctionID)
		if err != nil {
			return err
		}
		err = r.add(notifyRuleID(rule.event, "permission"), stackplan.KindNotification, resource.Permission{
			Action:       "lambda:InvokeFunction",
			FunctionName: intrinsics.Attr(NotifyFunctionID, "Arn"),
			Principal:    "events.amazonaws.com",
			SourceArn:    intrinsics.Attr(id, "Arn"),
		}, NotifyFunctionID, id)
		if err != nil {
			return err
		}
	}
	return nil
}
