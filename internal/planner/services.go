package planner

import (
	"fmt"
	"strings"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// Task log retention, in days.
const logRetentionDays = 30

type servicesOut struct {
	tasks        map[string]config.Task
	repositories map[string]string
	services     map[string]string
}

// tasksAndServices plans a log group, optional image repository and task
// definition per task, then an ECS service per service.
func (r *run) tasksAndServices() error {
	tasks, err := ident.Merge("task", r.cfg.ECS.Tasks, r.cfg.ECS.DiscoveredTasks,
		func(t config.Task) string { return t.Name }, func(t config.Task) string { return t.Source })
	if err != nil {
		return err
	}

	out := servicesOut{
		tasks:        make(map[string]config.Task, len(tasks)),
		repositories: make(map[string]string),
		services:     make(map[string]string, len(r.lb.services)),
	}
	published := r.publishedParams()

	for _, task := range tasks {
		if err := r.task(task, published, &out); err != nil {
			return fmt.Errorf("task %q: %w", task.Name, err)
		}
		out.tasks[task.Name] = task
	}

	for _, svc := range r.lb.services {
		task, ok := out.tasks[svc.TaskNameReference]
		if !ok {
			return fmt.Errorf("%w: service %q references task %q, which is not defined",
				stackplan.ErrMissingReference, svc.Name, svc.TaskNameReference)
		}
		if task.ContainerPort == 0 {
			return fmt.Errorf("%w: task %q is served by %q but has no containerPort",
				stackplan.ErrConfigurationIncomplete, task.Name, svc.Name)
		}

		id := r.serviceID(svc.Name)
		taskDef := r.taskDefinitionID(task.Name)
		tg := r.lb.targetGroups[svc.Name]
		err := r.add(id, stackplan.KindCompute, resource.Service{
			ServiceName:                   svc.Name,
			Cluster:                       intrinsics.RefTo(ClusterID),
			TaskDefinition:                intrinsics.RefTo(taskDef),
			LaunchType:                    "EC2",
			DesiredCount:                  resource.Int(svc.DesiredCount),
			HealthCheckGracePeriodSeconds: 60,
			DeploymentConfiguration: &resource.DeploymentConfiguration{
				MinimumHealthyPercent: resource.Int(50),
				MaximumPercent:        resource.Int(200),
			},
			LoadBalancers: []resource.ServiceLoadBalancer{{
				ContainerName:  task.Name,
				ContainerPort:  task.ContainerPort,
				TargetGroupArn: intrinsics.RefTo(tg),
			}},
		}, taskDef, tg, r.lb.rules[svc.Name], ClusterID, AutoScalingGroupID)
		if err != nil {
			return fmt.Errorf("service %q: %w", svc.Name, err)
		}
		out.services[svc.Name] = id
	}

	r.services = out
	return nil
}

func (r *run) task(task config.Task, published map[string]string, out *servicesOut) error {
	logGroup := r.logGroupID(task.Name)
	if err := r.add(logGroup, stackplan.KindCompute, resource.LogGroup{
		LogGroupName:    "/ecs/" + task.Name,
		RetentionInDays: logRetentionDays,
	}); err != nil {
		return err
	}

	deps := []string{ExecutionRoleID, TaskRoleID, logGroup}
	var image any = task.ImageURI
	switch {
	case task.CreateECR:
		repo := r.repositoryID(task.Name)
		if err := r.add(repo, stackplan.KindCompute, resource.Repository{RepositoryName: task.Name}); err != nil {
			return err
		}
		out.repositories[task.Name] = repo
		deps = append(deps, repo)
		if task.ImageURI == "" {
			image = intrinsics.Join{Delimiter: "", Values: []any{intrinsics.Attr(repo, "RepositoryUri"), ":latest"}}
		}
	case task.ImageURI == "":
		return fmt.Errorf("%w: set imageURI or createECR", stackplan.ErrConfigurationIncomplete)
	}

	container := resource.ContainerDefinition{
		Name:              task.Name,
		Image:             image,
		Essential:         resource.Bool(true),
		Cpu:               task.CPUUnits,
		Memory:            task.HardMemoryLimit,
		MemoryReservation: task.SoftMemoryLimit,
		LogConfiguration: &resource.LogConfiguration{
			LogDriver: "awslogs",
			Options: map[string]any{
				"awslogs-group":         "/ecs/" + task.Name,
				"awslogs-region":        intrinsics.AWS_REGION,
				"awslogs-stream-prefix": "ecs",
			},
		},
	}
	if task.ContainerPort != 0 {
		container.PortMappings = []resource.PortMapping{{
			ContainerPort: task.ContainerPort,
			HostPort:      task.HostPort,
			Protocol:      "tcp",
		}}
	}
	for _, k := range config.SortedKeys(task.Variables) {
		container.Environment = append(container.Environment, resource.KeyValuePair{Name: k, Value: task.Variables[k]})
	}
	for _, k := range config.SortedKeys(task.Params) {
		param := task.Params[k]
		container.Secrets = append(container.Secrets, resource.Secret{Name: k, ValueFrom: parameterARN(param)})
		if node, ok := published[param]; ok {
			deps = append(deps, node)
		}
	}

	var volumes []resource.Volume
	for _, name := range config.SortedKeys(task.Volumes) {
		volumes = append(volumes, resource.Volume{Name: name, Host: &resource.HostVolume{SourcePath: task.Volumes[name]}})
	}
	for _, name := range config.SortedKeys(task.Mounts) {
		if _, ok := task.Volumes[name]; !ok {
			return fmt.Errorf("%w: mount %q names no volume", stackplan.ErrMissingReference, name)
		}
		container.MountPoints = append(container.MountPoints, resource.MountPoint{SourceVolume: name, ContainerPath: task.Mounts[name]})
	}

	return r.add(r.taskDefinitionID(task.Name), stackplan.KindCompute, resource.TaskDefinition{
		Family:                  task.Name,
		NetworkMode:             "bridge",
		RequiresCompatibilities: []string{"EC2"},
		ExecutionRoleArn:        intrinsics.Attr(ExecutionRoleID, "Arn"),
		TaskRoleArn:             intrinsics.Attr(TaskRoleID, "Arn"),
		ContainerDefinitions:    []resource.ContainerDefinition{container},
		Volumes:                 volumes,
	}, deps...)
}

// publishedParams maps every parameter name published by a present data
// tier handle to the node publishing it.
func (r *run) publishedParams() map[string]string {
	params := make(map[string]string)
	for _, name := range []subsystem.Name{subsystem.RDS, subsystem.Cache} {
		for k, v := range r.handles.Get(name).Params() {
			params[k] = v
		}
	}
	return params
}

// parameterARN is the ARN of a parameter store entry, for container secrets.
func parameterARN(name string) intrinsics.Sub {
	return intrinsics.ARN("ssm", "parameter/"+strings.TrimPrefix(name, "/"))
}
