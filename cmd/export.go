package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/store"
)

var (
	exportOut      string
	exportDecision string
	exportLimit    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export appraisal history to an XLSX workbook",
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

		records, err := st.ListAppraisals(ctx, store.Filter{
			Decision: model.Decision(exportDecision),
			Limit:    exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list appraisals")
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Appraisals")
		if err != nil {
			return eris.Wrap(err, "add sheet")
		}

		header := sheet.AddRow()
		for _, h := range []string{"Created", "Item", "Category", "Condition", "Decision", "Value (USD)", "Confidence", "Quality", "Market Price", "Primary Sources"} {
			header.AddCell().Value = h
		}

		for _, r := range records {
			row := sheet.AddRow()
			row.AddCell().Value = r.CreatedAt.Format("2006-01-02 15:04")
			row.AddCell().Value = r.ItemName
			row.AddCell().Value = r.Category
			row.AddCell().Value = r.Result.Condition
			row.AddCell().Value = string(r.Decision)
			row.AddCell().SetFloat(r.EstimatedValue)
			row.AddCell().SetFloat(r.Confidence)
			row.AddCell().Value = string(r.Quality)
			if r.Result.BlendedPrice != nil {
				row.AddCell().SetFloat(r.Result.BlendedPrice.Value)
			} else {
				row.AddCell().Value = ""
			}
			row.AddCell().Value = availableSources(r.Result)
		}

		if err := file.Save(exportOut); err != nil {
			return eris.Wrapf(err, "save %s", exportOut)
		}

		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.Int("rows", len(records)),
		)
		return nil
	},
}

func availableSources(res model.AnalysisResult) string {
	var out string
	for i := range res.EvidenceSources {
		s := &res.EvidenceSources[i]
		if !s.Available {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += s.Source
	}
	return out
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "appraisals.xlsx", "output file path")
	exportCmd.Flags().StringVar(&exportDecision, "decision", "", "filter by decision (BUY, SELL, HOLD)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 1000, "max rows")
	rootCmd.AddCommand(exportCmd)
}
