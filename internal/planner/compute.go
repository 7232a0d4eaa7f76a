package planner

import (
	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// efsMountPoint is where instances mount the shared file system.
const efsMountPoint = "/mnt/efs"

type computeOut struct {
	// storage is the file system node instances mount, if any.
	storage string
}

// computeTemplate plans the ECS cluster and the launch template of its
// container instances. Instances mount the file system only when the
// storage handle is present.
func (r *run) computeTemplate() error {
	cfg := r.cfg
	if err := r.add(ClusterID, stackplan.KindCompute, resource.Cluster{ClusterName: cfg.ECS.ClusterName}); err != nil {
		return err
	}

	storage := r.handles.Get(subsystem.EFS)
	deps := []string{ClusterID, SecurityGroupEc2ID, InstanceProfileID}
	var out computeOut
	if node, ok := storage.Node(); ok {
		deps = append(deps, node)
		out.storage = node
	}

	lt := cfg.Scaling.LaunchTemplate
	instanceName := lt.InstanceName
	if instanceName == "" {
		instanceName = cfg.ECS.ClusterName
	}
	err := r.add(LaunchTemplateID, stackplan.KindCompute, resource.LaunchTemplate{
		LaunchTemplateName: lt.Name,
		LaunchTemplateData: resource.LaunchTemplateData{
			ImageId:            lt.ImageID,
			InstanceType:       lt.InstanceType,
			KeyName:            cfg.Security.KeyName,
			SecurityGroupIds:   []any{intrinsics.Attr(SecurityGroupEc2ID, "GroupId")},
			UserData:           intrinsics.Base64{Value: userData(cfg.ECS.ClusterName, storage)},
			IamInstanceProfile: &resource.IamInstanceProfileSpec{Arn: intrinsics.Attr(InstanceProfileID, "Arn")},
			BlockDeviceMappings: []resource.BlockDeviceMapping{{
				DeviceName: "/dev/xvda",
				Ebs: &resource.Ebs{
					DeleteOnTermination: resource.Bool(true),
					Encrypted:           resource.Bool(false),
					VolumeSize:          lt.StorageSize,
					VolumeType:          "gp3",
				},
			}},
			TagSpecifications: []resource.TagSpecification{{
				ResourceType: "instance",
				Tags:         resource.NameTag(instanceName),
			}},
		},
	}, deps...)
	if err != nil {
		return err
	}
	r.compute = out
	return nil
}

// userData is the instance boot script: join the cluster and, with a
// present storage handle, mount the file system.
func userData(cluster string, storage subsystem.Handle) intrinsics.Join {
	lines := []any{
		"#!/bin/bash",
		"yum update -y",
		"echo ECS_CLUSTER=" + cluster + " >> /etc/ecs/ecs.config",
	}
	if fs, ok := storage.Value(); ok {
		lines = append(lines,
			"yum install amazon-efs-utils -y",
			"mkdir -p "+efsMountPoint,
			intrinsics.Join{Delimiter: "", Values: []any{"echo \"", fs, ":/ " + efsMountPoint + " efs tls,_netdev\" >> /etc/fstab"}},
			"mount -a -t efs defaults",
		)
	}
	lines = append(lines, "")
	return intrinsics.Join{Delimiter: "\n", Values: lines}
}
