// Package logging sets up the diagnostic zerolog logger. The console output
// of the procedures stays human-oriented; this log keeps a JSON trail of
// every step and tool invocation in the data directory.
package logging

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ottojp/ccdev/internal/config"
)

// Open returns a logger appending JSON events to the data-dir log file.
// When the file cannot be opened the logger is a no-op; diagnostics must
// never break a procedure.
func Open(procedure string) zerolog.Logger {
	path, err := config.LogPath()
	if err != nil {
		return zerolog.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Str("procedure", procedure).Logger()
}
