package main

import (
	"log/slog"

	"github.com/arthur-debert/entigraph/event"
)

// slogSink adapts event.Sink to a slog.Logger, the way nanostore/cmd logs
// operation results to its results logger.
type slogSink struct {
	log *slog.Logger
}

func (s slogSink) Emit(e event.Event) {
	attrs := []any{"op", string(e.Op), "phase", string(e.Phase), "subject", e.SubjectID.String()}
	if e.Phase == event.PhaseCompleted {
		attrs = append(attrs, "changed", e.Changed)
		if e.Err != nil {
			attrs = append(attrs, "error", e.Err.Error())
			s.log.Warn("entigraph event", attrs...)
			return
		}
	}
	s.log.Debug("entigraph event", attrs...)
}
