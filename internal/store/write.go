package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/loopplan/internal/plan"
)

// RecordPlan stores p as compiled from source and returns the stored record.
// Uses ON CONFLICT DO NOTHING for idempotency: recording a plan with the same
// fingerprint from the same source again returns the existing record.
func (s *Store) RecordPlan(ctx context.Context, source string, p *plan.Plan) (PlanRecord, error) {
	if p == nil {
		return PlanRecord{}, fmt.Errorf("record plan: nil plan")
	}

	fingerprint, err := p.Fingerprint()
	if err != nil {
		return PlanRecord{}, fmt.Errorf("record plan: %w", err)
	}
	desc := p.Describe()
	descJSON, err := marshalDescriptor(desc)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("record plan: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return PlanRecord{}, fmt.Errorf("record plan: generate id: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans
		(id, fingerprint, source, scheduler_kind, mode, descriptor)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		id.String(),
		fingerprint,
		source,
		string(desc.Scheduler.Kind),
		p.Mode().String(),
		descJSON,
	)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("record plan: %w", err)
	}

	rec, found, err := s.findBySource(ctx, fingerprint, source)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("record plan: %w", err)
	}
	if !found {
		return PlanRecord{}, fmt.Errorf("record plan: %s from %s not found after insert", fingerprint, source)
	}
	return rec, nil
}
