package planner

import (
	"strconv"

	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
)

// Logical IDs of the fixed nodes of every plan.
const (
	VpcID               = "Vpc"
	InternetGatewayID   = "InternetGateway"
	GatewayAttachmentID = "GatewayAttachment"
	RouteTableID        = "PublicRouteTable"
	DefaultRouteID      = "PublicDefaultRoute"

	InstanceRoleID    = "InstanceRole"
	InstanceProfileID = "InstanceProfile"
	ExecutionRoleID   = "TaskExecutionRole"
	TaskRoleID        = "TaskRole"

	SecurityGroupAlbID = "SecurityGroupAlb"
	SecurityGroupEc2ID = "SecurityGroupEc2"

	ClusterID        = "Cluster"
	LaunchTemplateID = "LaunchTemplate"

	LoadBalancerID       = "LoadBalancer"
	DefaultTargetGroupID = "DefaultTargetGroup"
	HTTPListenerID       = "HttpListener"
	HTTPSListenerID      = "HttpsListener"
	AutoScalingGroupID   = "AutoScalingGroup"

	NotifyRoleID     = "NotifyRole"
	NotifyFunctionID = "NotifyFunction"
)

// fixedIDs are never handed out for a configuration entry.
var fixedIDs = append([]string{
	VpcID, InternetGatewayID, GatewayAttachmentID, RouteTableID, DefaultRouteID,
	InstanceRoleID, InstanceProfileID, ExecutionRoleID, TaskRoleID,
	SecurityGroupAlbID, SecurityGroupEc2ID,
	ClusterID, LaunchTemplateID,
	LoadBalancerID, DefaultTargetGroupID, HTTPListenerID, HTTPSListenerID, AutoScalingGroupID,
	NotifyRoleID, NotifyFunctionID,
}, subsystem.FixedIDs...)

func subnetID(ordinal int) string {
	return ident.LogicalID("subnet", strconv.Itoa(ordinal))
}

func routeAssociationID(ordinal int) string {
	return ident.LogicalID("subnet", strconv.Itoa(ordinal), "route table association")
}

func bucketID(role string) string {
	return ident.LogicalID(role, "bucket")
}

func securityGroupID(name string) string {
	return ident.LogicalID("security group", name)
}

func listenerID(port int) string {
	return ident.LogicalID("listener", strconv.Itoa(port))
}

func notifyRuleID(event string, suffix ...string) string {
	return ident.LogicalID(append([]string{"notify", event}, suffix...)...)
}

// IDs below derive from configuration names and go through the run's
// Namer, which keeps them apart from each other and from fixedIDs.

func (r *run) targetGroupID(service string) string {
	return r.names.ID("target group", service)
}

func (r *run) listenerRuleID(service string) string {
	return r.names.ID("listener rule", service)
}

func (r *run) logGroupID(task string) string {
	return r.names.ID("log group", task)
}

func (r *run) repositoryID(task string) string {
	return r.names.ID("repository", task)
}

func (r *run) taskDefinitionID(task string) string {
	return r.names.ID("task", task)
}

func (r *run) serviceID(service string) string {
	return r.names.ID("service", service)
}

func (r *run) sourceRepoID(repo string) string {
	return r.names.ID("source repo", repo)
}

func (r *run) pipelineID(name string, suffix ...string) string {
	return r.names.ID("pipeline", name, suffix...)
}
