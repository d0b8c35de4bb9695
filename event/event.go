// Package event defines the optional event-bus collaborator described in
// spec.md §6: around each core operation, the registry emits a paired
// "starting"/"completed" event. A missing sink is never an error; Noop is
// the zero-cost default.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Op names the operation an event describes.
type Op string

const (
	OpRegisterRoot    Op = "register_root"
	OpVersionEntity   Op = "version_entity"
	OpPromoteToRoot   Op = "promote_to_root"
	OpDetach          Op = "detach"
	OpAttach          Op = "attach"
	OpBorrowAttribute Op = "borrow_attribute_from"
)

// Phase distinguishes the two events emitted per operation.
type Phase string

const (
	PhaseStarting  Phase = "starting"
	PhaseCompleted Phase = "completed"
)

// Event is the payload delivered to a Sink.
type Event struct {
	Op        Op
	Phase     Phase
	SubjectID uuid.UUID
	At        time.Time

	// Outcome is populated on PhaseCompleted only.
	Changed bool
	Err     error
}

// Sink receives events. Implementations must not block the caller for
// long; the registry does not buffer or retry deliveries.
type Sink interface {
	Emit(Event)
}

// Noop is a Sink that discards every event. It is the registry's default
// so a missing bus never needs a nil check at call sites.
type Noop struct{}

func (Noop) Emit(Event) {}

// Func adapts a plain function to the Sink interface.
type Func func(Event)

func (f Func) Emit(e Event) { f(e) }
