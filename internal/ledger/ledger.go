package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository provides append and query operations for the run ledger.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository using db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one run. The id is generated, the row is immutable.
func (r *Repository) Record(procedure, outcome, detail string, startedAt time.Time, duration time.Duration) (string, error) {
	procedure = strings.TrimSpace(procedure)
	if procedure == "" {
		return "", fmt.Errorf("invalid procedure: name cannot be empty")
	}
	switch outcome {
	case OutcomeSuccess, OutcomeFailure, OutcomeFindings:
	default:
		return "", fmt.Errorf("invalid outcome %q", outcome)
	}
	id := uuid.NewString()
	var det interface{}
	if detail != "" {
		det = detail
	}
	_, err := r.db.Exec(
		"INSERT INTO runs (id, procedure, outcome, detail, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?)",
		id, procedure, outcome, det, startedAt.UTC().Format(time.RFC3339), duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (r *Repository) List(limit int) ([]Run, error) {
	q := "SELECT id, procedure, outcome, detail, started_at, duration_ms FROM runs ORDER BY started_at DESC, id"
	var args []interface{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Procedure, &run.Outcome, &run.Detail, &run.StartedAt, &run.DurationMS); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByProcedure returns the most recent runs of one procedure, newest first.
func (r *Repository) ListByProcedure(procedure string, limit int) ([]Run, error) {
	q := "SELECT id, procedure, outcome, detail, started_at, duration_ms FROM runs WHERE procedure = ? ORDER BY started_at DESC, id"
	args := []interface{}{procedure}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Procedure, &run.Outcome, &run.Detail, &run.StartedAt, &run.DurationMS); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
