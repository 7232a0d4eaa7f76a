package resource

// AutoScalingGroup is AWS::AutoScaling::AutoScalingGroup.
// Sizes are strings, as CloudFormation declares them.
type AutoScalingGroup struct {
	AutoScalingGroupName string                       `json:"AutoScalingGroupName"`
	DesiredCapacity      string                       `json:"DesiredCapacity"`
	MinSize              string                       `json:"MinSize"`
	MaxSize              string                       `json:"MaxSize"`
	LaunchTemplate       *LaunchTemplateSpecification `json:"LaunchTemplate"`
	VPCZoneIdentifier    []any                        `json:"VPCZoneIdentifier"`
	TargetGroupARNs      []any                        `json:"TargetGroupARNs"`
	Tags                 []PropagatedTag              `json:"Tags"`
}

func (AutoScalingGroup) ResourceType() string { return "AWS::AutoScaling::AutoScalingGroup" }

// LaunchTemplateSpecification selects a launch template version.
type LaunchTemplateSpecification struct {
	LaunchTemplateId any `json:"LaunchTemplateId"`
	Version          any `json:"Version"`
}

// PropagatedTag is an auto scaling group tag.
type PropagatedTag struct {
	Key               string `json:"Key"`
	Value             string `json:"Value"`
	PropagateAtLaunch bool   `json:"PropagateAtLaunch"`
}
