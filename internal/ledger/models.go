// Package ledger records procedure runs and their outcomes.
package ledger

import "database/sql"

// Run outcomes. A run either completed, failed on a fatal step, or
// completed with diagnostic findings.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFindings = "findings"
)

// Run is a single recorded invocation of a procedure.
type Run struct {
	ID         string
	Procedure  string
	Outcome    string
	Detail     sql.NullString
	StartedAt  string
	DurationMS int64
}
