package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ottojp/ccdev/internal/project"
	"github.com/ottojp/ccdev/internal/serviceconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the service configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check the service config file is well-formed JSON",
	Long:  "Check the service configuration file parses as JSON. The contents are opaque to this tooling; structural observations are warnings only.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		cfg, err := project.Load(root)
		if err != nil {
			return err
		}

		path := filepath.Join(root, cfg.Service.ConfigFile)
		if len(args) == 1 {
			path = args[0]
		}

		rep := newReporter()
		res := serviceconfig.Probe(path)
		switch {
		case res.Missing:
			rep.Error("%s not found", path)
			return fmt.Errorf("service config not found: %s", path)
		case res.Malformed:
			rep.Error("%s is not valid JSON: %v", path, res.Err)
			return fmt.Errorf("service config malformed: %s", path)
		}
		rep.Success("%s is well-formed JSON", path)
		for _, w := range res.Warnings {
			rep.Warn("%s", w)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
