package store

import (
	"context"
	"fmt"

	"github.com/roach88/trackview/internal/ir"
)

// WriteSequence stores a serialized sequence and returns its content hash.
// Uses ON CONFLICT(hash) DO NOTHING: writing the same document twice is a
// no-op.
func (s *Store) WriteSequence(ctx context.Context, name string, xml []byte) (string, error) {
	hash := ir.SequenceHash(xml)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sequences (hash, name, xml)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, name, string(xml))
	if err != nil {
		return "", fmt.Errorf("write sequence: %w", err)
	}
	return hash, nil
}

// WriteRun stores a run and its ordered effects in one transaction. The
// trace hash is computed from effects; run.TraceHash is ignored and the
// stored value is returned.
//
// Note: The sequence referenced by run.SequenceHash must exist (foreign
// key constraint).
func (s *Store) WriteRun(ctx context.Context, run Run, effects []ir.Effect) (string, error) {
	traceHash, err := ir.TraceHash(effects)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	meta, err := marshalMeta(run.Meta)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, sequence_hash, sequence_name, frames, trace_hash, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.SequenceHash, run.SequenceName, run.Frames, traceHash, meta)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO effects (run_id, seq, time_us, kind, target, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("write run: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range effects {
		if _, err := stmt.ExecContext(ctx, run.ID, e.Seq, e.TimeUS, string(e.Kind), e.Target, e.Value); err != nil {
			return "", fmt.Errorf("write run: effect %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: commit: %w", err)
	}
	return traceHash, nil
}

// DeleteRun removes a run and its effects. It reports whether the run
// existed.
func (s *Store) DeleteRun(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	return n > 0, nil
}
