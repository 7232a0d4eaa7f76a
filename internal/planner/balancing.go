package planner

import (
	"fmt"
	"strconv"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// Ports served by the main listeners; other service ports get their own.
const (
	httpPort  = 80
	httpsPort = 443
)

type balancingOut struct {
	loadBalancer string
	listener     string

	// services is the merged service list, explicit entries first.
	services     []config.Service
	priorities   map[string]int
	targetNames  map[string]string
	targetGroups map[string]string
	rules        map[string]string
}

// balancing plans the load balancer, its listeners, a target group and
// listener rule per service, and the auto scaling group registered with
// every target group.
func (r *run) balancing() error {
	cfg := r.cfg
	services, err := ident.Merge("service", cfg.ECS.Services, cfg.ECS.DiscoveredServices,
		func(s config.Service) string { return s.Name }, func(s config.Service) string { return s.Source })
	if err != nil {
		return err
	}
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name
	}
	priorities, err := ident.AssignPriorities(names)
	if err != nil {
		return err
	}
	targetNames, err := ident.TargetNames(cfg.Name, names)
	if err != nil {
		return err
	}

	err = r.add(LoadBalancerID, stackplan.KindBalancer, resource.LoadBalancer{
		Name:           cfg.ALB.Name,
		Scheme:         "internet-facing",
		Type:           "application",
		IpAddressType:  "ipv4",
		Subnets:        r.subnetRefs(),
		SecurityGroups: []any{intrinsics.Attr(SecurityGroupAlbID, "GroupId")},
	}, append([]string{GatewayAttachmentID, SecurityGroupAlbID}, r.net.subnetIDs...)...)
	if err != nil {
		return err
	}

	if err := r.add(DefaultTargetGroupID, stackplan.KindBalancer, r.targetGroup("", "/"), LoadBalancerID); err != nil {
		return err
	}

	listener, err := r.listeners()
	if err != nil {
		return err
	}

	out := balancingOut{
		loadBalancer: LoadBalancerID,
		listener:     listener,
		services:     services,
		priorities:   priorities,
		targetNames:  targetNames,
		targetGroups: make(map[string]string, len(services)),
		rules:        make(map[string]string, len(services)),
	}

	extraPorts := make(map[int]bool)
	for _, svc := range services {
		if len(svc.Hosts) == 0 {
			return fmt.Errorf("%w: service %q has no hosts to route", stackplan.ErrConfigurationIncomplete, svc.Name)
		}
		tgID := r.targetGroupID(svc.Name)
		healthPath := svc.HealthCheckPath
		if healthPath == "" {
			healthPath = "/"
		}
		if err := r.add(tgID, stackplan.KindBalancer, r.targetGroup(targetNames[svc.Name], healthPath), LoadBalancerID); err != nil {
			return fmt.Errorf("service %q: %w", svc.Name, err)
		}

		ruleID := r.listenerRuleID(svc.Name)
		err := r.add(ruleID, stackplan.KindBalancer, resource.ListenerRule{
			ListenerArn: intrinsics.RefTo(listener),
			Priority:    priorities[svc.Name],
			Conditions: []resource.RuleCondition{{
				Field:            "host-header",
				HostHeaderConfig: &resource.HostHeaderConfig{Values: svc.Hosts},
			}},
			Actions: []resource.Action{resource.Forward(intrinsics.RefTo(tgID))},
		}, LoadBalancerID, listener, tgID)
		if err != nil {
			return fmt.Errorf("service %q: %w", svc.Name, err)
		}
		out.targetGroups[svc.Name] = tgID
		out.rules[svc.Name] = ruleID

		port := svc.ListenerPort
		if port == 0 || port == httpPort || port == httpsPort || extraPorts[port] {
			continue
		}
		extraPorts[port] = true
		err = r.add(listenerID(port), stackplan.KindBalancer, resource.Listener{
			LoadBalancerArn: intrinsics.RefTo(LoadBalancerID),
			Port:            port,
			Protocol:        r.listenerProtocol(),
			Certificates:    r.certificates(),
			DefaultActions:  []resource.Action{resource.Forward(intrinsics.RefTo(tgID))},
		}, LoadBalancerID, tgID)
		if err != nil {
			return fmt.Errorf("service %q: %w", svc.Name, err)
		}
	}
	r.lb = out

	if err := r.autoScalingGroup(); err != nil {
		return err
	}
	return r.output("LoadBalancerDNS", "DNS name of the load balancer", intrinsics.Attr(LoadBalancerID, "DNSName"), true)
}

// listeners plans the main listener and returns its node. With a
// certificate the main listener is HTTPS and port 80 redirects to it.
func (r *run) listeners() (string, error) {
	forward := []resource.Action{resource.Forward(intrinsics.RefTo(DefaultTargetGroupID))}
	if r.cfg.Security.SSLCertArn == "" {
		err := r.add(HTTPListenerID, stackplan.KindBalancer, resource.Listener{
			LoadBalancerArn: intrinsics.RefTo(LoadBalancerID),
			Port:            httpPort,
			Protocol:        "HTTP",
			DefaultActions:  forward,
		}, LoadBalancerID, DefaultTargetGroupID)
		return HTTPListenerID, err
	}

	err := r.add(HTTPListenerID, stackplan.KindBalancer, resource.Listener{
		LoadBalancerArn: intrinsics.RefTo(LoadBalancerID),
		Port:            httpPort,
		Protocol:        "HTTP",
		DefaultActions: []resource.Action{{
			Type: "redirect",
			RedirectConfig: &resource.RedirectConfig{
				Protocol:   "HTTPS",
				Port:       strconv.Itoa(httpsPort),
				Host:       "#{host}",
				Path:       "/#{path}",
				Query:      "#{query}",
				StatusCode: "HTTP_301",
			},
		}},
	}, LoadBalancerID, DefaultTargetGroupID)
	if err != nil {
		return "", err
	}
	err = r.add(HTTPSListenerID, stackplan.KindBalancer, resource.Listener{
		LoadBalancerArn: intrinsics.RefTo(LoadBalancerID),
		Port:            httpsPort,
		Protocol:        "HTTPS",
		Certificates:    r.certificates(),
		DefaultActions:  forward,
	}, LoadBalancerID, DefaultTargetGroupID)
	return HTTPSListenerID, err
}

func (r *run) listenerProtocol() string {
	if r.cfg.Security.SSLCertArn != "" {
		return "HTTPS"
	}
	return "HTTP"
}

func (r *run) certificates() []resource.Certificate {
	if r.cfg.Security.SSLCertArn == "" {
		return nil
	}
	return []resource.Certificate{{CertificateArn: r.cfg.Security.SSLCertArn}}
}

func (r *run) targetGroup(name, healthPath string) resource.TargetGroup {
	return resource.TargetGroup{
		Name:                       name,
		Port:                       httpPort,
		Protocol:                   "HTTP",
		TargetType:                 "instance",
		VpcId:                      intrinsics.RefTo(VpcID),
		HealthCheckEnabled:         resource.Bool(true),
		HealthCheckIntervalSeconds: 30,
		HealthCheckPath:            healthPath,
		HealthCheckProtocol:        "HTTP",
		HealthCheckTimeoutSeconds:  15,
		HealthyThresholdCount:      2,
		UnhealthyThresholdCount:    5,
		Matcher:                    &resource.Matcher{HttpCode: "200,302"},
	}
}

// autoScalingGroup plans the container instance group. It registers with
// every target group and waits for the security groups and the mounted
// file system.
func (r *run) autoScalingGroup() error {
	sc := r.cfg.Scaling
	deps := []string{LaunchTemplateID, SecurityGroupEc2ID}
	deps = append(deps, r.net.subnetIDs...)
	if r.compute.storage != "" {
		deps = append(deps, r.compute.storage)
	}

	targets := []any{intrinsics.RefTo(DefaultTargetGroupID)}
	deps = append(deps, DefaultTargetGroupID)
	for _, svc := range r.lb.services {
		tg := r.lb.targetGroups[svc.Name]
		targets = append(targets, intrinsics.RefTo(tg))
		deps = append(deps, tg)
	}

	return r.add(AutoScalingGroupID, stackplan.KindCompute, resource.AutoScalingGroup{
		AutoScalingGroupName: sc.Name,
		DesiredCapacity:      strconv.Itoa(sc.DesiredSize),
		MinSize:              strconv.Itoa(sc.MinSize),
		MaxSize:              strconv.Itoa(sc.MaxSize),
		LaunchTemplate: &resource.LaunchTemplateSpecification{
			LaunchTemplateId: intrinsics.RefTo(LaunchTemplateID),
			Version:          intrinsics.Attr(LaunchTemplateID, "LatestVersionNumber"),
		},
		VPCZoneIdentifier: r.subnetRefs(),
		TargetGroupARNs:   targets,
		Tags: []resource.PropagatedTag{{
			Key:               "Name",
			Value:             sc.Name,
			PropagateAtLaunch: true,
		}},
	}, deps...)
}
