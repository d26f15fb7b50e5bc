package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ottojp/ccdev/internal/build"
	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/gate"
	"github.com/ottojp/ccdev/internal/ledger"
	"github.com/ottojp/ccdev/internal/logging"
	"github.com/ottojp/ccdev/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the quality and security gate",
	Long:  "Run the fixed battery of formatting, lint, type, and security checks; only the final package build+import check is fatal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		root, err := projectRoot()
		if err != nil {
			return err
		}
		cfg, err := project.Load(root)
		if err != nil {
			return err
		}

		rep := newReporter()
		log := logging.Open("check")
		runner := executor.New(false, verbose, cmd.OutOrStdout())

		verify := func(ctx context.Context) error {
			p := &build.Procedure{
				Root:    root,
				Project: cfg,
				Runner:  runner,
				Report:  rep,
				Log:     log,
			}
			return p.Verify(ctx)
		}

		g := &gate.Gate{
			Root:    root,
			Project: cfg,
			Runner:  runner,
			Report:  rep,
			Log:     log,
			Verify:  verify,
		}

		started := time.Now()
		sum, err := g.Run(cmd.Context())
		detail := fmt.Sprintf("%d clean, %d findings, %d skipped", sum.Passed, sum.Findings, sum.Skipped)
		if err != nil {
			recordRun(rep, "check", ledger.OutcomeFailure, detail, started)
			return err
		}
		outcome := ledger.OutcomeSuccess
		if sum.Findings > 0 {
			outcome = ledger.OutcomeFindings
		}
		recordRun(rep, "check", outcome, detail, started)
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("verbose", false, "Echo every executed command")
	rootCmd.AddCommand(checkCmd)
}
