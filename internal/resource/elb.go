package resource

// LoadBalancer is AWS::ElasticLoadBalancingV2::LoadBalancer.
type LoadBalancer struct {
	Name           string `json:"Name"`
	Scheme         string `json:"Scheme"`
	Type           string `json:"Type"`
	IpAddressType  string `json:"IpAddressType"`
	Subnets        []any  `json:"Subnets"`
	SecurityGroups []any  `json:"SecurityGroups"`
}

func (LoadBalancer) ResourceType() string { return "AWS::ElasticLoadBalancingV2::LoadBalancer" }

// TargetGroup is AWS::ElasticLoadBalancingV2::TargetGroup.
type TargetGroup struct {
	Name                       string   `json:"Name"`
	Port                       int      `json:"Port"`
	Protocol                   string   `json:"Protocol"`
	TargetType                 string   `json:"TargetType"`
	VpcId                      any      `json:"VpcId"`
	HealthCheckEnabled         *bool    `json:"HealthCheckEnabled"`
	HealthCheckIntervalSeconds int      `json:"HealthCheckIntervalSeconds"`
	HealthCheckPath            string   `json:"HealthCheckPath"`
	HealthCheckProtocol        string   `json:"HealthCheckProtocol"`
	HealthCheckTimeoutSeconds  int      `json:"HealthCheckTimeoutSeconds"`
	HealthyThresholdCount      int      `json:"HealthyThresholdCount"`
	UnhealthyThresholdCount    int      `json:"UnhealthyThresholdCount"`
	Matcher                    *Matcher `json:"Matcher"`
}

func (TargetGroup) ResourceType() string { return "AWS::ElasticLoadBalancingV2::TargetGroup" }

// Matcher lists the HTTP codes a healthy target returns.
type Matcher struct {
	HttpCode string `json:"HttpCode"`
}

// Listener is AWS::ElasticLoadBalancingV2::Listener.
type Listener struct {
	LoadBalancerArn any           `json:"LoadBalancerArn"`
	Port            int           `json:"Port"`
	Protocol        string        `json:"Protocol"`
	Certificates    []Certificate `json:"Certificates"`
	DefaultActions  []Action      `json:"DefaultActions"`
}

func (Listener) ResourceType() string { return "AWS::ElasticLoadBalancingV2::Listener" }

// Certificate names a listener certificate.
type Certificate struct {
	CertificateArn string `json:"CertificateArn"`
}

// Action is a listener or rule action.
type Action struct {
	Type           string          `json:"Type"`
	TargetGroupArn any             `json:"TargetGroupArn"`
	RedirectConfig *RedirectConfig `json:"RedirectConfig"`
}

// Forward forwards to a target group.
func Forward(targetGroup any) Action {
	return Action{Type: "forward", TargetGroupArn: targetGroup}
}

// RedirectConfig describes a redirect action.
type RedirectConfig struct {
	Protocol   string `json:"Protocol"`
	Port       string `json:"Port"`
	Host       string `json:"Host"`
	Path       string `json:"Path"`
	Query      string `json:"Query"`
	StatusCode string `json:"StatusCode"`
}

// ListenerRule is AWS::ElasticLoadBalancingV2::ListenerRule.
type ListenerRule struct {
	ListenerArn any             `json:"ListenerArn"`
	Priority    int             `json:"Priority"`
	Conditions  []RuleCondition `json:"Conditions"`
	Actions     []Action        `json:"Actions"`
}

func (ListenerRule) ResourceType() string { return "AWS::ElasticLoadBalancingV2::ListenerRule" }

// RuleCondition matches requests for a listener rule.
type RuleCondition struct {
	Field             string             `json:"Field"`
	HostHeaderConfig  *HostHeaderConfig  `json:"HostHeaderConfig"`
	PathPatternConfig *PathPatternConfig `json:"PathPatternConfig"`
}

// HostHeaderConfig matches on the Host header.
type HostHeaderConfig struct {
	Values []string `json:"Values"`
}

// PathPatternConfig matches on the request path.
type PathPatternConfig struct {
	Values []string `json:"Values"`
}
