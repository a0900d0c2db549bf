package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/loopplan/internal/plan"
)

// PlanRecord is a stored plan.
type PlanRecord struct {
	Seq         int64               `json:"seq" yaml:"seq"`
	ID          string              `json:"id" yaml:"id"`
	Fingerprint string              `json:"fingerprint" yaml:"fingerprint"`
	Source      string              `json:"source" yaml:"source"`
	Kind        plan.Kind           `json:"scheduler_kind" yaml:"scheduler_kind"`
	Mode        string              `json:"mode" yaml:"mode"`
	Descriptor  plan.PlanDescriptor `json:"descriptor" yaml:"descriptor"`
}

const selectPlans = `
	SELECT seq, id, fingerprint, source, scheduler_kind, mode, descriptor
	FROM plans
`

// ListPlans returns every stored plan in insertion order.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListPlans(ctx context.Context) ([]PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectPlans+`
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	return collectPlans(rows)
}

// FindByFingerprint returns every stored plan with the given fingerprint, one
// per source, in insertion order.
//
// Returns an empty slice (not nil) if none match.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectPlans+`
		WHERE fingerprint = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query plans by fingerprint: %w", err)
	}
	return collectPlans(rows)
}

// findBySource returns the record for a fingerprint compiled from source.
func (s *Store) findBySource(ctx context.Context, fingerprint, source string) (PlanRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, selectPlans+`
		WHERE fingerprint = ? AND source = ?
	`, fingerprint, source)

	rec, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanRecord{}, false, nil
	}
	if err != nil {
		return PlanRecord{}, false, err
	}
	return rec, true, nil
}

func collectPlans(rows *sql.Rows) ([]PlanRecord, error) {
	defer rows.Close()

	records := []PlanRecord{}
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return records, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (PlanRecord, error) {
	var (
		rec      PlanRecord
		kind     string
		descJSON string
	)
	if err := row.Scan(&rec.Seq, &rec.ID, &rec.Fingerprint, &rec.Source, &kind, &rec.Mode, &descJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PlanRecord{}, err
		}
		return PlanRecord{}, fmt.Errorf("scan plan: %w", err)
	}
	rec.Kind = plan.Kind(kind)

	desc, err := unmarshalDescriptor(descJSON)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("plan %s: %w", rec.ID, err)
	}
	rec.Descriptor = desc
	return rec, nil
}
