package planner

import (
	"fmt"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/netalloc"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

type networkOut struct {
	subnets   []netalloc.Subnet
	subnetIDs []string
}

// network plans the VPC, its public subnets and their route to the
// internet gateway.
func (r *run) network() error {
	vpc := r.cfg.VPC

	base, err := netalloc.ParseBlock(vpc.BaseAddress, vpc.CidrSize)
	if err != nil {
		return fmt.Errorf("vpc: %w", err)
	}
	subnets, err := netalloc.Allocate(base, vpc.BaseCidrSize, r.in.Zones, vpc.NumPublicSubnets)
	if err != nil {
		return fmt.Errorf("vpc %s: %w", vpc.Name, err)
	}
	if len(subnets) == 0 {
		return fmt.Errorf("%w: vpc %s has no availability zones to place subnets in",
			stackplan.ErrConfigurationIncomplete, vpc.Name)
	}

	err = r.add(VpcID, stackplan.KindNetwork, resource.VPC{
		CidrBlock:          base.String(),
		EnableDnsHostnames: true,
		EnableDnsSupport:   true,
		InstanceTenancy:    "default",
		Tags:               resource.NameTag(vpc.Name),
	})
	if err != nil {
		return err
	}

	err = r.add(InternetGatewayID, stackplan.KindNetwork, resource.InternetGateway{
		Tags: resource.NameTag(vpc.Name),
	}, VpcID)
	if err != nil {
		return err
	}
	err = r.add(GatewayAttachmentID, stackplan.KindNetwork, resource.VPCGatewayAttachment{
		VpcId:             intrinsics.RefTo(VpcID),
		InternetGatewayId: intrinsics.RefTo(InternetGatewayID),
	}, VpcID, InternetGatewayID)
	if err != nil {
		return err
	}

	err = r.add(RouteTableID, stackplan.KindNetwork, resource.RouteTable{
		VpcId: intrinsics.RefTo(VpcID),
		Tags:  resource.NameTag(vpc.Name + "-public"),
	}, VpcID)
	if err != nil {
		return err
	}
	err = r.add(DefaultRouteID, stackplan.KindNetwork, resource.Route{
		RouteTableId:         intrinsics.RefTo(RouteTableID),
		DestinationCidrBlock: "0.0.0.0/0",
		GatewayId:            intrinsics.RefTo(InternetGatewayID),
	}, RouteTableID, GatewayAttachmentID)
	if err != nil {
		return err
	}

	ids := make([]string, len(subnets))
	for i, s := range subnets {
		id := subnetID(s.Ordinal)
		err := r.add(id, stackplan.KindNetwork, resource.Subnet{
			VpcId:               intrinsics.RefTo(VpcID),
			CidrBlock:           s.Block.String(),
			AvailabilityZone:    s.Zone,
			MapPublicIpOnLaunch: true,
			Tags:                resource.NameTag(fmt.Sprintf("%s-subnet-%d", vpc.Name, s.Ordinal)),
		}, VpcID)
		if err != nil {
			return err
		}
		err = r.add(routeAssociationID(s.Ordinal), stackplan.KindNetwork, resource.SubnetRouteTableAssociation{
			RouteTableId: intrinsics.RefTo(RouteTableID),
			SubnetId:     intrinsics.RefTo(id),
		}, id, RouteTableID)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	r.net = networkOut{subnets: subnets, subnetIDs: ids}
	return r.output("VpcId", "VPC of the stack", intrinsics.RefTo(VpcID), true)
}

// subnetRefs returns a Ref to every subnet.
func (r *run) subnetRefs() []any {
	refs := make([]any, len(r.net.subnetIDs))
	for i, id := range r.net.subnetIDs {
		refs[i] = intrinsics.RefTo(id)
	}
	return refs
}
