// Package planner turns a stack configuration into an ordered plan of
// resource nodes.
//
// Planning runs a fixed sequence of stages. Each stage adds all of its
// nodes to the dependency graph before the next begins and reads only what
// earlier stages published. Any failure aborts the run: the partial graph
// is discarded and a *PlanError names the failing stage.
package planner

import (
	"context"
	"fmt"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/dag"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/log"
	"github.com/lex00/stackplan-aws-go/internal/netalloc"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/internal/serialize"
	"github.com/lex00/stackplan-aws-go/internal/subsystem"
)

// Stage is one step of a planning run.
type Stage int

const (
	StageNetwork Stage = iota
	StageIdentity
	StageSecurity
	StageOptionalStorage
	StageComputeTemplate
	StageBalancing
	StageOptionalDataTier
	StageTasksAndServices
	StagePipelines
	StageOptionalDelivery
)

var stageNames = [...]string{
	StageNetwork:          "Network",
	StageIdentity:         "Identity",
	StageSecurity:         "Security",
	StageOptionalStorage:  "OptionalStorage",
	StageComputeTemplate:  "ComputeTemplate",
	StageBalancing:        "Balancing",
	StageOptionalDataTier: "OptionalDataTier",
	StageTasksAndServices: "TasksAndServices",
	StagePipelines:        "Pipelines",
	StageOptionalDelivery: "OptionalDelivery",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// PlanError is a planning failure attributed to the stage that raised it.
type PlanError struct {
	Stage Stage
	Err   error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }

// Inputs is everything a planning run reads. All of it is resolved before
// planning starts.
type Inputs struct {
	Config *config.Config

	// Zones are the availability zones to place subnets in, in order.
	Zones []string

	// BucketSuffixes maps a bucket name to the suffix appended when the
	// bucket has addUniqueId set.
	BucketSuffixes map[string]string
}

// Plan is the result of a successful planning run.
type Plan struct {
	Name string

	// Nodes are in creation order: every node follows its dependencies.
	Nodes []stackplan.ResourceNode

	Subnets     []netalloc.Subnet
	SubnetIDs   []string
	Priorities  map[string]int
	TargetNames map[string]string
	Handles     subsystem.Handles
	Outputs     map[string]stackplan.Output
}

// Planner plans stacks. A Planner holds no per-run state and may be used
// for any number of runs.
type Planner struct {
	composer *subsystem.Composer
}

// New returns a planner with the default subsystem builders.
func New() *Planner {
	return &Planner{composer: subsystem.NewComposer()}
}

// NewWithComposer returns a planner using the given subsystem composer.
func NewWithComposer(c *subsystem.Composer) *Planner {
	return &Planner{composer: c}
}

type step struct {
	stage Stage
	run   func(*run) error
}

var steps = []step{
	{StageNetwork, (*run).network},
	{StageIdentity, (*run).identity},
	{StageSecurity, (*run).security},
	{StageOptionalStorage, (*run).optionalStorage},
	{StageComputeTemplate, (*run).computeTemplate},
	{StageBalancing, (*run).balancing},
	{StageOptionalDataTier, (*run).optionalDataTier},
	{StageTasksAndServices, (*run).tasksAndServices},
	{StagePipelines, (*run).pipelines},
	{StageOptionalDelivery, (*run).optionalDelivery},
}

// Plan runs every stage against in and returns the ordered plan.
// Cancellation is checked between stages.
func (p *Planner) Plan(ctx context.Context, in Inputs) (*Plan, error) {
	if in.Config == nil {
		return nil, &PlanError{Stage: StageNetwork, Err: fmt.Errorf("%w: no configuration", stackplan.ErrConfigurationIncomplete)}
	}
	if err := in.Config.Validate(); err != nil {
		return nil, &PlanError{Stage: StageNetwork, Err: err}
	}

	r := newRun(p.composer, in)
	log.Debug("Planning stack", "stack", r.cfg.Name, "zones", len(in.Zones))

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, &PlanError{Stage: s.stage, Err: err}
		}
		before := r.g.Len()
		if err := s.run(r); err != nil {
			return nil, &PlanError{Stage: s.stage, Err: err}
		}
		log.Debug("Stage complete", "stage", s.stage, "nodes", r.g.Len()-before)
	}

	nodes, err := r.g.TopologicalOrder()
	if err != nil {
		return nil, &PlanError{Stage: StageOptionalDelivery, Err: err}
	}

	log.Info("Plan ready", "stack", r.cfg.Name, "resources", len(nodes), "subsystems", len(r.handles.Present()))
	return &Plan{
		Name:        r.cfg.Name,
		Nodes:       nodes,
		Subnets:     r.net.subnets,
		SubnetIDs:   r.net.subnetIDs,
		Priorities:  r.lb.priorities,
		TargetNames: r.lb.targetNames,
		Handles:     r.handles,
		Outputs:     r.outputs,
	}, nil
}

// run is the state of one planning run. Each stage fills its own output
// struct; later stages only read them.
type run struct {
	cfg      *config.Config
	in       Inputs
	g        *dag.Graph
	composer *subsystem.Composer
	toggles  []subsystem.Toggle
	handles  subsystem.Handles
	names    *ident.Namer
	outputs  map[string]stackplan.Output

	net      networkOut
	iam      identityOut
	sec      securityOut
	compute  computeOut
	lb       balancingOut
	services servicesOut
}

func newRun(c *subsystem.Composer, in Inputs) *run {
	toggles := subsystem.Toggles(in.Config)
	handles := make(subsystem.Handles, len(toggles))
	for _, t := range toggles {
		handles[t.Name] = subsystem.Absent()
	}
	return &run{
		cfg:      in.Config,
		in:       in,
		g:        dag.New(),
		composer: c,
		toggles:  toggles,
		handles:  handles,
		names:    ident.NewNamer(fixedIDs...),
		outputs:  make(map[string]stackplan.Output),
	}
}

// compose builds the named subsystems and records their handles.
func (r *run) compose(names ...subsystem.Name) error {
	handles, err := r.composer.Compose(subsystem.Select(r.toggles, names...), subsystem.Context{
		Graph:          r.g,
		Config:         r.cfg,
		Names:          r.names,
		Subnets:        r.net.subnetIDs,
		SecurityGroups: r.sec.subsystems,
		LoadBalancer:   r.lb.loadBalancer,
		AssetsBucket:   r.iam.buckets[config.BucketAssets],
	})
	if err != nil {
		return err
	}
	for name, h := range handles {
		r.handles[name] = h
	}
	return nil
}

func (r *run) optionalStorage() error {
	return r.compose(subsystem.EFS)
}

func (r *run) optionalDataTier() error {
	if err := r.compose(subsystem.RDS, subsystem.Cache); err != nil {
		return err
	}
	if v, ok := r.handles.Get(subsystem.RDS).Value(); ok {
		return r.output("DatabaseEndpoint", "Writer endpoint of the database cluster", v, false)
	}
	return nil
}

// add serializes a resource into the graph.
func (r *run) add(id string, kind stackplan.Kind, res stackplan.Resource, deps ...string) error {
	return resource.Add(r.g, id, kind, res, deps...)
}

// output records a template output. Exported outputs are named
// <stack>-<name>.
func (r *run) output(name, description string, value any, export bool) error {
	v, err := serialize.Value(value)
	if err != nil {
		return fmt.Errorf("output %s: %w", name, err)
	}
	out := stackplan.Output{Description: description, Value: v}
	if export {
		out.Export = &stackplan.Export{Name: r.cfg.Name + "-" + name}
	}
	r.outputs[name] = out
	return nil
}
