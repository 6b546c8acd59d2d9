// Package dbtrace wraps a repository call in a span and records its outcome.
package dbtrace

import (
	"context"
	"time"

	"taskmanager/internal/core/port"
)

type Operation struct {
	telemetry port.Telemetry
	span      port.Span
	name      string
	entity    string
	start     time.Time
}

func Begin(ctx context.Context, probe port.Telemetry, system, name, entity string, attrs map[string]interface{}) (context.Context, *Operation) {
	base := map[string]interface{}{
		"db.system": system,
		"db.table":  entity + "s",
	}

	for k, v := range attrs {
		base[k] = v
	}

	ctx, span := probe.StartRepositorySpan(ctx, name, entity, base)

	return ctx, &Operation{
		telemetry: probe,
		span:      span,
		name:      name,
		entity:    entity,
		start:     time.Now(),
	}
}

func (op *Operation) Query(ctx context.Context, sql string, args []interface{}) {
	op.telemetry.RecordRepositoryQuery(ctx, op.name, op.entity, sql, args)
}

// Fail ends the span with err and hands it back for returning.
func (op *Operation) Fail(ctx context.Context, err error) error {
	op.span.SetStatus("error", err.Error())
	op.span.RecordError(err)
	op.telemetry.RecordRepositoryOperation(ctx, op.name, op.entity, time.Since(op.start), err)
	op.span.End()

	return err
}

func (op *Operation) Done(ctx context.Context, attrs map[string]interface{}) {
	if len(attrs) > 0 {
		op.span.SetAttributes(attrs)
	}

	op.span.SetStatus("ok", "")
	op.telemetry.RecordRepositoryOperation(ctx, op.name, op.entity, time.Since(op.start), nil)
	op.span.End()
}
