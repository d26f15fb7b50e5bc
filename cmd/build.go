package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ottojp/ccdev/internal/build"
	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/ledger"
	"github.com/ottojp/ccdev/internal/logging"
	"github.com/ottojp/ccdev/internal/project"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the package and verify it installs and imports",
	Long:  "Build a wheel in the build environment, install it with its plugins into a fresh disposable environment, and smoke-test the result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dry, _ := cmd.Flags().GetBool("dry-run")
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
		p := &build.Procedure{
			Root:    root,
			Project: cfg,
			Runner:  executor.New(dry, verbose, cmd.OutOrStdout()),
			Report:  rep,
			Log:     logging.Open("build"),
			DryRun:  dry,
		}

		started := time.Now()
		if err := p.Run(cmd.Context()); err != nil {
			rep.Error("%v", err)
			if !dry {
				recordRun(rep, "build", ledger.OutcomeFailure, err.Error(), started)
			}
			return err
		}
		if !dry {
			recordRun(rep, "build", ledger.OutcomeSuccess, cfg.Package.Name, started)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().Bool("dry-run", false, "Print the commands without executing them")
	buildCmd.Flags().Bool("verbose", false, "Echo every executed command")
	rootCmd.AddCommand(buildCmd)
}
