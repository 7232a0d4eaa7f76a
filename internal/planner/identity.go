package planner

import (
	"fmt"
	"slices"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// Managed policies attached to the container instances.
var instancePolicies = []string{
	"AmazonElasticFileSystemFullAccess",
	"service-role/AmazonEC2RoleforAWSCodeDeploy",
	"service-role/AmazonEC2ContainerServiceforEC2Role",
	"AmazonSSMManagedInstanceCore",
}

type identityOut struct {
	// buckets maps a bucket role to its node; bucketNames to its name.
	buckets     map[string]string
	bucketNames map[string]string
}

// identity plans the instance and task roles and the stack's buckets.
func (r *run) identity() error {
	managed := make([]any, len(instancePolicies))
	for i, p := range instancePolicies {
		managed[i] = resource.ManagedPolicy(p)
	}
	err := r.add(InstanceRoleID, stackplan.KindIdentity, resource.Role{
		Description:              "Container instances of " + r.cfg.Name,
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("ec2.amazonaws.com"),
		ManagedPolicyArns:        managed,
	})
	if err != nil {
		return err
	}
	err = r.add(InstanceProfileID, stackplan.KindIdentity, resource.InstanceProfile{
		Roles: []any{intrinsics.RefTo(InstanceRoleID)},
	}, InstanceRoleID)
	if err != nil {
		return err
	}

	err = r.add(ExecutionRoleID, stackplan.KindIdentity, resource.Role{
		Description:              "Task execution for " + r.cfg.Name,
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("ecs-tasks.amazonaws.com"),
		ManagedPolicyArns:        []any{resource.ManagedPolicy("service-role/AmazonECSTaskExecutionRolePolicy")},
		Policies: []resource.InlinePolicy{{
			PolicyName: "read-task-parameters",
			PolicyDocument: intrinsics.Policy(
				intrinsics.Allow([]string{"ssm:GetParameters", "ssm:GetParameter"}, intrinsics.ARN("ssm", "parameter/*")),
			),
		}},
	})
	if err != nil {
		return err
	}
	err = r.add(TaskRoleID, stackplan.KindIdentity, resource.Role{
		Description:              "Tasks of " + r.cfg.Name,
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("ecs-tasks.amazonaws.com"),
	})
	if err != nil {
		return err
	}

	return r.buckets()
}

// buckets plans one bucket per declared role. A role may be declared once;
// missing roles are reported at the Pipelines stage.
func (r *run) buckets() error {
	out := identityOut{
		buckets:     make(map[string]string),
		bucketNames: make(map[string]string),
	}
	for _, b := range r.cfg.S3.Buckets {
		if b.Name == "" {
			return fmt.Errorf("%w: bucket of type %q has no name", stackplan.ErrConfigurationIncomplete, b.Type)
		}
		if !slices.Contains(config.BucketRoles, b.Type) {
			return fmt.Errorf("%w: bucket %q has type %q, want one of %v",
				stackplan.ErrInvalidConfiguration, b.Name, b.Type, config.BucketRoles)
		}
		if prev, ok := out.bucketNames[b.Type]; ok {
			return fmt.Errorf("%w: buckets %q and %q both have type %q",
				stackplan.ErrDuplicateIdentifier, prev, b.Name, b.Type)
		}

		name, err := r.bucketName(b)
		if err != nil {
			return err
		}
		id := bucketID(b.Type)
		if err := r.add(id, stackplan.KindBucket, resource.Bucket{
			BucketName: name,
			Tags:       []resource.Tag{{Key: "Role", Value: b.Type}},
		}); err != nil {
			return err
		}
		out.buckets[b.Type] = id
		out.bucketNames[b.Type] = name
	}
	r.iam = out
	return nil
}

func (r *run) bucketName(b config.Bucket) (string, error) {
	if !b.AddUniqueID {
		return b.Name, nil
	}
	suffix := b.UniqueSuffix
	if suffix == "" {
		suffix = r.in.BucketSuffixes[b.Name]
	}
	if suffix == "" {
		return "", fmt.Errorf("%w: bucket %q needs a unique suffix but none was resolved",
			stackplan.ErrConfigurationIncomplete, b.Name)
	}
	return b.Name + "-" + suffix, nil
}

// bucket returns the node of a bucket role that a consumer requires.
func (r *run) bucket(role, consumer string) (string, error) {
	id, ok := r.iam.buckets[role]
	if !ok {
		return "", fmt.Errorf("%w: %s needs a bucket of type %q", stackplan.ErrMissingReference, consumer, role)
	}
	return id, nil
}
