package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/store"
)

var (
	historyDecision string
	historyCategory string
	historyLimit    int
	historyJSON     bool
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List past appraisals, or show one by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		if len(args) == 1 {
			record, err := st.GetAppraisal(ctx, args[0])
			if err != nil {
				return eris.Wrapf(err, "get appraisal %s", args[0])
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		}

		records, err := st.ListAppraisals(ctx, store.Filter{
			Decision: model.Decision(historyDecision),
			Category: historyCategory,
			Limit:    historyLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list appraisals")
		}

		if historyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tITEM\tCATEGORY\tDECISION\tVALUE\tCONF\tQUALITY")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t$%.2f\t%.0f%%\t%s\n",
				r.CreatedAt.Format("2006-01-02 15:04"),
				r.ItemName, r.Category, r.Decision,
				r.EstimatedValue, r.Confidence, r.Quality)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyDecision, "decision", "", "filter by decision (BUY, SELL, HOLD)")
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "filter by category")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "max rows")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "emit raw JSON")
	rootCmd.AddCommand(historyCmd)
}
