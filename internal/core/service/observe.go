package service

import (
	"context"
	"time"

	"taskmanager/internal/core/port"
)

// finish is deferred by every traced service call; err points at the named
// return value so the final outcome is recorded.
func finish(ctx context.Context, probe port.Telemetry, span port.Span, service, operation string, userID int, start time.Time, err *error) {
	var outcome error

	if err != nil {
		outcome = *err
	}

	probe.RecordServiceOperation(ctx, service, operation, userID, time.Since(start), outcome)

	if outcome != nil {
		span.RecordError(outcome)
		span.SetStatus("error", outcome.Error())
	} else {
		span.SetStatus("ok", "")
	}

	span.End()
}
