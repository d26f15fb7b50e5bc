package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ottojp/ccdev/internal/db"
	"github.com/ottojp/ccdev/internal/ledger"
	"github.com/ottojp/ccdev/internal/report"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "ccdev",
	Short: "ccdev builds, verifies, and releases the CarConnectivity connector",
	Long:  "ccdev wraps the build-and-test, quality-gate, and release procedures of the connector package into one binary",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ccdev: run 'ccdev --help' to see available commands")
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func newReporter() *report.Reporter {
	return report.New(os.Stdout, !noColor)
}

func projectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine project root: %w", err)
	}
	return wd, nil
}

// recordRun appends the run to the ledger. Best-effort: a broken ledger
// must never change a procedure's outcome.
func recordRun(rep *report.Reporter, procedure, outcome, detail string, started time.Time) {
	dbConn, err := db.InitDB()
	if err != nil {
		rep.Warn("run ledger unavailable: %v", err)
		return
	}
	defer func() { _ = dbConn.Close() }()

	r := ledger.NewRepository(dbConn)
	if _, err := r.Record(procedure, outcome, detail, started, time.Since(started)); err != nil {
		rep.Warn("run not recorded: %v", err)
	}
}
