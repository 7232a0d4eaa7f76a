// Package subsystem composes the optional parts of a stack: the shared file
// system, the Aurora cluster, the cache clusters and the CDN.
//
// A subsystem is enabled only when its configuration section is present and
// marked enabled. Composing an enabled subsystem adds its nodes to the graph
// and yields a present Handle; a disabled one adds nothing and yields an
// absent Handle. Downstream stages branch on handle presence only.
package subsystem

import (
	"fmt"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/dag"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/log"
)

// Name identifies an optional subsystem.
type Name string

const (
	EFS   Name = "efs"
	RDS   Name = "rds"
	Cache Name = "cache"
	CDN   Name = "cdn"
)

// Names lists every subsystem in composition order.
var Names = []Name{EFS, RDS, Cache, CDN}

// FixedIDs lists the logical IDs subsystems use regardless of configuration.
var FixedIDs = []string{
	FileSystemID,
	DatabaseClusterID, DatabaseSubnetGroupID, DatabaseParameterGroupID,
	DatabaseHostParamID, DatabaseReadHostParamID,
	CacheSubnetGroupID,
	AssetsBucketPolicyID,
}

// Toggle records whether a subsystem is enabled.
type Toggle struct {
	Name    Name
	Enabled bool
}

// Toggles reads the subsystem switches from a configuration. A missing
// section is disabled.
func Toggles(cfg *config.Config) []Toggle {
	return []Toggle{
		{Name: EFS, Enabled: cfg.EFS != nil && cfg.EFS.Enabled},
		{Name: RDS, Enabled: cfg.RDS != nil && cfg.RDS.Enabled},
		{Name: Cache, Enabled: cfg.Cache != nil && cfg.Cache.Enabled},
		{Name: CDN, Enabled: cfg.CDN != nil && cfg.CDN.Enabled},
	}
}

// Select returns the toggles for the given subsystems, in toggle order.
func Select(toggles []Toggle, names ...Name) []Toggle {
	var selected []Toggle
	for _, t := range toggles {
		for _, n := range names {
			if t.Name == n {
				selected = append(selected, t)
			}
		}
	}
	return selected
}

// Enabled reports whether the named toggle is on.
func Enabled(toggles []Toggle, name Name) bool {
	for _, t := range toggles {
		if t.Name == name {
			return t.Enabled
		}
	}
	return false
}

// Handle is the result of composing a subsystem: either present, carrying
// the node downstream resources depend on and the value they reference, or
// absent.
type Handle struct {
	present bool
	node    string
	value   any
	params  map[string]string
}

// Present returns a handle for an enabled subsystem. params maps each
// published parameter name to the node that publishes it.
func Present(node string, value any, params map[string]string) Handle {
	return Handle{present: true, node: node, value: value, params: params}
}

// Absent returns the handle of a disabled subsystem.
func Absent() Handle { return Handle{} }

// IsPresent reports whether the subsystem was composed.
func (h Handle) IsPresent() bool { return h.present }

// Value returns the value downstream resources reference, such as a file
// system ID or an endpoint address.
func (h Handle) Value() (any, bool) { return h.value, h.present }

// Node returns the ID of the subsystem's primary node.
func (h Handle) Node() (string, bool) { return h.node, h.present }

// Params returns the parameters the subsystem publishes, keyed by
// parameter name. The map is a copy.
func (h Handle) Params() map[string]string {
	params := make(map[string]string, len(h.params))
	for k, v := range h.params {
		params[k] = v
	}
	return params
}

// Handles holds a handle per subsystem.
type Handles map[Name]Handle

// Get returns the handle for name, absent if it was never composed.
func (h Handles) Get(name Name) Handle {
	if handle, ok := h[name]; ok {
		return handle
	}
	return Absent()
}

// Present returns the names of the present handles, in composition order.
func (h Handles) Present() []Name {
	var names []Name
	for _, n := range Names {
		if h.Get(n).IsPresent() {
			names = append(names, n)
		}
	}
	return names
}

// Context is what a subsystem builder reads from earlier stages.
type Context struct {
	Graph  *dag.Graph
	Config *config.Config

	// Names derives the IDs of configured entries. May be nil.
	Names *ident.Namer

	// Subnets holds subnet node IDs in ordinal order.
	Subnets []string

	// SecurityGroups maps a subsystem to its security group node.
	SecurityGroups map[Name]string

	LoadBalancer string
	AssetsBucket string
}

func (c Context) securityGroup(name Name) (string, error) {
	id, ok := c.SecurityGroups[name]
	if !ok || id == "" {
		return "", fmt.Errorf("%w: no security group planned for %s", stackplan.ErrMissingReference, name)
	}
	return id, nil
}

// BuildFunc adds a subsystem's nodes to the graph.
type BuildFunc func(ctx Context) (Handle, error)

// Composer builds enabled subsystems.
type Composer struct {
	builders map[Name]BuildFunc
}

// NewComposer returns a composer for every known subsystem.
func NewComposer() *Composer {
	return &Composer{builders: map[Name]BuildFunc{
		EFS:   composeEFS,
		RDS:   composeRDS,
		Cache: composeCache,
		CDN:   composeCDN,
	}}
}

// Register replaces the builder for name.
func (c *Composer) Register(name Name, build BuildFunc) {
	c.builders[name] = build
}

// Compose builds each enabled toggle and returns a handle per toggle.
func (c *Composer) Compose(toggles []Toggle, ctx Context) (Handles, error) {
	handles := make(Handles, len(toggles))
	for _, t := range toggles {
		if !t.Enabled {
			log.Info("Subsystem disabled", "subsystem", t.Name)
			handles[t.Name] = Absent()
			continue
		}
		build, ok := c.builders[t.Name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown subsystem %q", stackplan.ErrInvalidConfiguration, t.Name)
		}
		handle, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		log.Info("Subsystem included", "subsystem", t.Name, "node", handle.node)
		handles[t.Name] = handle
	}
	return handles, nil
}
