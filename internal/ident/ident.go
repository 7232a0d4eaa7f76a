// Package ident assigns names and priorities to planned resources.
//
// Every function is pure: results depend only on the arguments, in the
// order given.
package ident

import (
	"fmt"
	"strings"
	"unicode"

	stackplan "github.com/lex00/stackplan-aws-go"
)

// MaxPriority is the highest listener rule priority the load balancer accepts.
const MaxPriority = 50000

// MaxTargetNameLength is the load balancer limit on target group names.
const MaxTargetNameLength = 32

// AssignPriorities numbers keys 1..N in input order.
func AssignPriorities[K comparable](keys []K) (map[K]int, error) {
	if len(keys) > MaxPriority {
		return nil, fmt.Errorf("%w: %d listener rules exceed the limit of %d",
			stackplan.ErrInvalidConfiguration, len(keys), MaxPriority)
	}
	priorities := make(map[K]int, len(keys))
	for i, k := range keys {
		if _, seen := priorities[k]; seen {
			return nil, fmt.Errorf("%w: %v is listed twice", stackplan.ErrDuplicateIdentifier, k)
		}
		priorities[k] = i + 1
	}
	return priorities, nil
}

// Merge concatenates explicit and discovered entries, explicit first.
// A name that appears more than once is an error naming the entry and the
// files declaring it. source returns the file an entry was read from; it
// may be nil, and an empty source falls back to where the list came from.
func Merge[T any](kind string, explicit, discovered []T, name, source func(T) string) ([]T, error) {
	merged := make([]T, 0, len(explicit)+len(discovered))
	seen := make(map[string]string, len(explicit)+len(discovered))

	add := func(item T, fallback string) error {
		origin := fallback
		if source != nil && source(item) != "" {
			origin = source(item)
		}
		n := name(item)
		if n == "" {
			return fmt.Errorf("%w: %s from %s has no name", stackplan.ErrConfigurationIncomplete, kind, origin)
		}
		if prev, ok := seen[n]; ok {
			return fmt.Errorf("%w: %s %q declared in %s and %s", stackplan.ErrDuplicateIdentifier, kind, n, prev, origin)
		}
		seen[n] = origin
		merged = append(merged, item)
		return nil
	}

	for _, item := range explicit {
		if err := add(item, "the config file"); err != nil {
			return nil, err
		}
	}
	for _, item := range discovered {
		if err := add(item, "the config directory"); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// TargetNames derives a load balancer target group name for each service.
// Names are lower case, limited to [a-z0-9-] and MaxTargetNameLength
// characters. Two services deriving the same name is an error.
func TargetNames(stack string, services []string) (map[string]string, error) {
	names := make(map[string]string, len(services))
	owners := make(map[string]string, len(services))
	for _, svc := range services {
		target := TargetName(stack, svc)
		if owner, ok := owners[target]; ok {
			return nil, fmt.Errorf("%w: services %q and %q both map to target group %q",
				stackplan.ErrDuplicateIdentifier, owner, svc, target)
		}
		owners[target] = svc
		names[svc] = target
	}
	return names, nil
}

// TargetName derives a single target group name.
func TargetName(stack, service string) string {
	name := sanitizeName(stack + "-" + service)
	if len(name) > MaxTargetNameLength {
		name = strings.TrimRight(name[:MaxTargetNameLength], "-")
	}
	return name
}

// LogicalID builds a CloudFormation logical ID from name parts:
// LogicalID("task", "web-api") == "TaskWebApi".
func LogicalID(parts ...string) string {
	var sb strings.Builder
	for _, part := range parts {
		upper := true
		for _, r := range part {
			if !isAlnum(r) {
				upper = true
				continue
			}
			if upper {
				sb.WriteRune(unicode.ToUpper(r))
				upper = false
			} else {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

func sanitizeName(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if isAlnum(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
