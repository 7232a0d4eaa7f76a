package planner

import (
	"fmt"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
	"github.com/lex00/stackplan-aws-go/internal/template"
)

// Result converts the plan to its printable form.
func (p *Plan) Result() stackplan.PlanResult {
	subsystems := make(map[string]bool, len(subsystem.Names))
	for _, name := range subsystem.Names {
		subsystems[string(name)] = p.Handles.Get(name).IsPresent()
	}

	subnets := make([]stackplan.SubnetResult, len(p.Subnets))
	for i, s := range p.Subnets {
		subnets[i] = stackplan.SubnetResult{
			Cidr:    s.Block.String(),
			Zone:    s.Zone,
			Ordinal: s.Ordinal,
		}
		if i < len(p.SubnetIDs) {
			subnets[i].ID = p.SubnetIDs[i]
		}
	}

	return stackplan.PlanResult{
		Success:     true,
		Name:        p.Name,
		Subsystems:  subsystems,
		Subnets:     subnets,
		Priorities:  p.Priorities,
		TargetNames: p.TargetNames,
		Nodes:       p.Nodes,
	}
}

// Template builds the CloudFormation template for the plan.
func (p *Plan) Template() (*stackplan.Template, error) {
	b := template.NewBuilder(p.Nodes)
	b.SetDescription(fmt.Sprintf("%s application stack", p.Name))
	for name, out := range p.Outputs {
		b.AddOutput(name, out)
	}
	tmpl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building template for %s: %w", p.Name, err)
	}
	return tmpl, nil
}
