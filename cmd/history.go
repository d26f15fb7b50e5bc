package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ottojp/ccdev/internal/db"
	"github.com/ottojp/ccdev/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history [procedure]",
	Short: "Show recorded procedure runs",
	Long:  "Show recorded runs from the ledger (procedure, outcome, start time, duration), newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		dbConn, err := db.InitDB()
		if err != nil {
			return err
		}
		defer func() { _ = dbConn.Close() }()

		r := ledger.NewRepository(dbConn)
		var runs []ledger.Run
		if len(args) == 1 {
			runs, err = r.ListByProcedure(args[0], limit)
		} else {
			runs, err = r.List(limit)
		}
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return nil
		}
		out := cmd.OutOrStdout()
		for _, run := range runs {
			detail := ""
			if run.Detail.Valid {
				detail = run.Detail.String
			}
			fmt.Fprintf(out, "%s\t%s\t%s\t%dms\t%s\n", run.StartedAt, run.Procedure, run.Outcome, run.DurationMS, detail)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
