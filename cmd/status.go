package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/gate"
	"github.com/ottojp/ccdev/internal/project"
	"github.com/ottojp/ccdev/internal/pyenv"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tool availability, environments, and expected files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		cfg, err := project.Load(root)
		if err != nil {
			return err
		}

		rep := newReporter()
		runner := executor.New(false, false, cmd.OutOrStdout())

		rep.Step("interpreter")
		if py := pyenv.Interpreter(runner); py != "" {
			rep.Success("%s on PATH", py)
		} else {
			rep.Error("no python interpreter on PATH")
		}

		rep.Step("environments")
		for _, e := range []pyenv.Env{
			pyenv.New(root, cfg.Env.BuildDir),
			pyenv.New(root, cfg.Env.TestDir),
		} {
			if e.Exists() {
				rep.Success("%s present", e.Dir)
			} else {
				rep.Info("%s not created yet", e.Dir)
			}
		}

		rep.Step("gate tools")
		for _, chk := range gate.Battery() {
			if runner.Available(chk.Tool) {
				rep.Success("%s", chk.Tool)
			} else {
				rep.Warn("%s not installed", chk.Tool)
			}
		}

		rep.Step("expected files")
		for _, rel := range gate.ExpectedFiles(cfg) {
			if _, err := os.Stat(filepath.Join(root, rel)); err == nil {
				rep.Success("%s", rel)
			} else {
				rep.Warn("%s missing", rel)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
