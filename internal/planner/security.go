package planner

import (
	"fmt"
	"strings"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

type securityOut struct {
	subsystems map[subsystem.Name]string
}

// Ports opened from the instances to each data subsystem.
var subsystemPorts = map[subsystem.Name][]int{
	subsystem.EFS:   {2049},
	subsystem.RDS:   {3306, 5432},
	subsystem.Cache: {11211, 6379},
}

// security plans the security group chain: the load balancer group, the
// instance group admitting it, and a group per enabled data subsystem
// admitting the instances.
func (r *run) security() error {
	desc := "Created by " + r.cfg.Name

	albIngress := []resource.Ingress{
		resource.TCPFromCidr("0.0.0.0/0", 80, 80, "http"),
		resource.TCPFromCidr("0.0.0.0/0", 443, 443, "https"),
	}
	albIngress = append(albIngress, r.bastionIngress()...)
	err := r.add(SecurityGroupAlbID, stackplan.KindSecurity, resource.SecurityGroup{
		GroupName:            r.cfg.Name + "-alb",
		GroupDescription:     desc,
		VpcId:                intrinsics.RefTo(VpcID),
		SecurityGroupIngress: albIngress,
	}, VpcID)
	if err != nil {
		return err
	}

	ec2Ingress := []resource.Ingress{
		resource.TCPFromGroup(intrinsics.Attr(SecurityGroupAlbID, "GroupId"), 0, 65535, "load balancer"),
	}
	ec2Ingress = append(ec2Ingress, r.bastionIngress()...)
	err = r.add(SecurityGroupEc2ID, stackplan.KindSecurity, resource.SecurityGroup{
		GroupName:            r.cfg.Name + "-ec2",
		GroupDescription:     desc,
		VpcId:                intrinsics.RefTo(VpcID),
		SecurityGroupIngress: ec2Ingress,
	}, VpcID, SecurityGroupAlbID)
	if err != nil {
		return err
	}

	out := securityOut{subsystems: make(map[subsystem.Name]string)}
	for _, name := range []subsystem.Name{subsystem.EFS, subsystem.RDS, subsystem.Cache} {
		if !subsystem.Enabled(r.toggles, name) {
			continue
		}
		var ingress []resource.Ingress
		for _, port := range subsystemPorts[name] {
			ingress = append(ingress, resource.TCPFromGroup(
				intrinsics.Attr(SecurityGroupEc2ID, "GroupId"), port, port, fmt.Sprintf("instances to %s", name)))
		}
		id := securityGroupID(string(name))
		err := r.add(id, stackplan.KindSecurity, resource.SecurityGroup{
			GroupName:            fmt.Sprintf("%s-%s", r.cfg.Name, name),
			GroupDescription:     desc,
			VpcId:                intrinsics.RefTo(VpcID),
			SecurityGroupIngress: ingress,
		}, VpcID, SecurityGroupEc2ID)
		if err != nil {
			return err
		}
		out.subsystems[name] = id
	}
	r.sec = out
	return nil
}

func (r *run) bastionIngress() []resource.Ingress {
	var rules []resource.Ingress
	for _, ip := range r.cfg.Security.BastionIPs {
		if !strings.Contains(ip, "/") {
			ip += "/32"
		}
		rules = append(rules, resource.TCPFromCidr(ip, 0, 65535, "bastion"))
	}
	return rules
}
