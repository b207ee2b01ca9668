package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/trackview/internal/ir"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SequenceRecord is a stored sequence document.
type SequenceRecord struct {
	Hash string
	Name string
	XML  []byte
}

// Run is one stored playback of a sequence.
type Run struct {
	ID           string            `json:"id"`
	SequenceHash string            `json:"sequence_hash"`
	SequenceName string            `json:"sequence_name"`
	Frames       int64             `json:"frames"`
	TraceHash    string            `json:"trace_hash"`
	Meta         map[string]string `json:"meta,omitempty"`
}

// ReadSequence returns the sequence with the given content hash.
func (s *Store) ReadSequence(ctx context.Context, hash string) (SequenceRecord, error) {
	var rec SequenceRecord
	var xml string
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, name, xml FROM sequences WHERE hash = ?
	`, hash).Scan(&rec.Hash, &rec.Name, &xml)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("sequence %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("read sequence: %w", err)
	}
	rec.XML = []byte(xml)
	return rec, nil
}

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sequence_hash, sequence_name, frames, trace_hash, meta
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return run, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns the runs of a sequence in id order. An empty name
// lists every run. Returns an empty slice (not nil) when there are none.
func (s *Store) ListRuns(ctx context.Context, sequenceName string) ([]Run, error) {
	query := `
		SELECT id, sequence_hash, sequence_name, frames, trace_hash, meta
		FROM runs`
	var args []any
	if sequenceName != "" {
		query += ` WHERE sequence_name = ?`
		args = append(args, sequenceName)
	}
	query += ` ORDER BY id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEffects returns the trace of a run ordered by seq. Returns an empty
// slice (not nil) for a run without effects.
func (s *Store) ReadEffects(ctx context.Context, runID string) ([]ir.Effect, error) {
	return s.queryEffects(ctx, `
		SELECT seq, time_us, kind, target, value
		FROM effects
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadEffectsOfKind returns the effects of one kind in a run, ordered by
// seq.
func (s *Store) ReadEffectsOfKind(ctx context.Context, runID string, kind ir.EffectKind) ([]ir.Effect, error) {
	return s.queryEffects(ctx, `
		SELECT seq, time_us, kind, target, value
		FROM effects
		WHERE run_id = ? AND kind = ?
		ORDER BY seq ASC
	`, runID, string(kind))
}

func (s *Store) queryEffects(ctx context.Context, query string, args ...any) ([]ir.Effect, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query effects: %w", err)
	}
	defer rows.Close()

	effects := []ir.Effect{}
	for rows.Next() {
		var e ir.Effect
		var kind string
		if err := rows.Scan(&e.Seq, &e.TimeUS, &kind, &e.Target, &e.Value); err != nil {
			return nil, fmt.Errorf("scan effect: %w", err)
		}
		e.Kind = ir.EffectKind(kind)
		effects = append(effects, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate effects: %w", err)
	}
	return effects, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var meta string
	if err := row.Scan(&run.ID, &run.SequenceHash, &run.SequenceName, &run.Frames, &run.TraceHash, &meta); err != nil {
		return run, err
	}
	m, err := unmarshalMeta(meta)
	if err != nil {
		return run, err
	}
	run.Meta = m
	return run, nil
}
