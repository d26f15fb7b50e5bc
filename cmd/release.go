package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/ledger"
	"github.com/ottojp/ccdev/internal/logging"
	"github.com/ottojp/ccdev/internal/project"
	"github.com/ottojp/ccdev/internal/release"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Cut and push a version tag from the trunk branch",
	Long:  "Validate the repository state (trunk branch, clean tree), prompt for a new version, tag it, and push the tag; CI publishes from the tag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		versionFlag, _ := cmd.Flags().GetString("version")
		yes, _ := cmd.Flags().GetBool("yes")

		root, err := projectRoot()
		if err != nil {
			return err
		}
		cfg, err := project.Load(root)
		if err != nil {
			return err
		}

		rep := newReporter()
		p := &release.Procedure{
			Root:    root,
			Project: cfg,
			Runner:  executor.New(false, false, cmd.OutOrStdout()),
			Report:  rep,
			Log:     logging.Open("release"),
			In:      os.Stdin,
			Version: versionFlag,
			Yes:     yes,
		}

		started := time.Now()
		tag, err := p.Run(cmd.Context())
		if err != nil {
			rep.Error("%v", err)
			recordRun(rep, "release", ledger.OutcomeFailure, err.Error(), started)
			return err
		}
		recordRun(rep, "release", ledger.OutcomeSuccess, tag, started)
		return nil
	},
}

func init() {
	releaseCmd.Flags().String("version", "", "New version (major.minor.patch); prompts when omitted")
	releaseCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(releaseCmd)
}
