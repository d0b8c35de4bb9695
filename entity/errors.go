package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel error kinds, per spec.md §7. Every core operation aborts and
// leaves its receiver (registry, tree) unmodified on any of these; none is
// caught and turned into a default value inside the core.
var (
	ErrCycleDetected         = errors.New("entigraph: cycle detected building entity tree")
	ErrOrphanOperation       = errors.New("entigraph: operation requires a non-orphan entity")
	ErrNotARoot              = errors.New("entigraph: entity is not a root")
	ErrDuplicateRegistration = errors.New("entigraph: root already registered")
	ErrMissingEntity         = errors.New("entigraph: index referenced an entity absent from nodes")
	ErrFieldNotFound         = errors.New("entigraph: field not declared on entity")
	ErrInvariantViolation    = errors.New("entigraph: invariant violation")
)

// StoreError wraps a sentinel error kind with the offending id(s) so
// callers (and tests) can assert on specifics, the way
// original_source/tests/test_entity_registry.py asserts on ids carried by
// raised exceptions.
type StoreError struct {
	Kind    error
	EcsID   uuid.UUID
	Lineage uuid.UUID
	Detail  string
}

func (e *StoreError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.EcsID != uuid.Nil {
		msg = fmt.Sprintf("%s (ecs_id=%s)", msg, e.EcsID)
	}
	if e.Lineage != uuid.Nil {
		msg = fmt.Sprintf("%s (lineage_id=%s)", msg, e.Lineage)
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Kind }

// NewError builds a StoreError for kind, optionally naming the offending
// ecs_id and a free-form detail string.
func NewError(kind error, ecsID uuid.UUID, detail string) *StoreError {
	return &StoreError{Kind: kind, EcsID: ecsID, Detail: detail}
}
