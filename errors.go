package stackplan

import "errors"

// Planning failures. Every error returned by the planner wraps exactly one
// of these; callers test with errors.Is. None of them is transient.
var (
	// ErrAddressSpaceExhausted means the base block cannot hold the
	// requested number of subnets.
	ErrAddressSpaceExhausted = errors.New("address space exhausted")

	// ErrDuplicateIdentifier means two entries claim the same name,
	// priority or logical ID.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrCycleDetected means a dependency edge would close a cycle.
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrMissingReference means a name reference (task, service, repository,
	// bucket role or graph node) does not resolve.
	ErrMissingReference = errors.New("missing reference")

	// ErrConfigurationIncomplete means an enabled feature lacks a required
	// field or a required bucket role is absent.
	ErrConfigurationIncomplete = errors.New("configuration incomplete")

	// ErrInvalidConfiguration means a value is present but malformed.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
