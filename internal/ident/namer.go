package ident

import (
	"strings"

	"github.com/google/uuid"
)

// HashLength is the number of hex characters a Namer inserts to keep two
// entries apart.
const HashLength = 8

// Namer derives logical IDs for entries named in the configuration.
//
// LogicalID drops separators and case, so "web" + "build role" and
// "web-build" + "role" land on the same ID. A Namer remembers which entry
// owns each ID; when a derived ID is reserved or owned by another entry,
// the later entry gets NameHash(kind, name) inserted after its name.
// The same kind, name and suffix always return the same ID.
//
// A nil Namer derives plain LogicalIDs.
type Namer struct {
	owners map[string]string
	ids    map[string]string
}

// NewNamer returns a Namer that never hands out the reserved IDs.
func NewNamer(reserved ...string) *Namer {
	n := &Namer{
		owners: make(map[string]string, len(reserved)),
		ids:    make(map[string]string),
	}
	for _, id := range reserved {
		n.owners[id] = ""
	}
	return n
}

// ID returns the logical ID of the entry name of the given kind, with
// optional suffix parts naming one of the entry's resources:
// ID("pipeline", "web", "build role") == "PipelineWebBuildRole".
func (n *Namer) ID(kind, name string, suffix ...string) string {
	parts := append([]string{kind, name}, suffix...)
	base := LogicalID(parts...)
	if n == nil {
		return base
	}

	key := strings.Join(parts, "\x00")
	if id, ok := n.ids[key]; ok {
		return id
	}
	id := base
	if owner, taken := n.owners[id]; taken && owner != key {
		id = LogicalID(kind, name) + NameHash(kind, name) + LogicalID(suffix...)
	}
	n.owners[id] = key
	n.ids[key] = id
	return id
}

// NameHash is a short stable hash of an entry's kind and raw name.
func NameHash(kind, name string) string {
	sum := uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+"/"+name))
	return strings.ReplaceAll(sum.String(), "-", "")[:HashLength]
}
