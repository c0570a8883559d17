package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/scout/internal/aggregate"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export results as JSON, CSV, or Markdown",
	Long:  "Export the aggregated review results, failing criteria first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd.Context())
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, csv, markdown")
	exportCmd.Flags().StringVar(&resultsStatus, "status", "", "Only export results with this status")
	rootCmd.AddCommand(exportCmd)
}

func exportRun(ctx context.Context) error {
	switch exportFormat {
	case "json", "csv", "markdown":
	default:
		return fmt.Errorf("unknown format: %s (use: json, csv, markdown)", exportFormat)
	}

	c, err := newClient(nil)
	if err != nil {
		return err
	}
	records, err := newAggregator(c).LoadResults(ctx)
	if err != nil {
		return err
	}
	records = filterStatus(records, resultsStatus)

	switch exportFormat {
	case "csv":
		return exportCSV(ui.Out, records)
	case "markdown":
		exportMarkdown(ui.Out, records)
		return nil
	default:
		return ui.JSON(records)
	}
}

func sourceNames(r aggregate.DisplayRecord) string {
	names := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		names[i] = s.FileName
	}
	return strings.Join(names, "; ")
}

func exportCSV(w io.Writer, records []aggregate.DisplayRecord) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ID", "Criterion", "Category", "Gate", "Status", "Justification", "Sources"})
	for _, r := range records {
		_ = cw.Write([]string{r.ID, r.Criterion.Question, r.Category, r.Gate.Label(), string(r.Status), r.Justification, sourceNames(r)})
	}
	cw.Flush()
	return cw.Error()
}

// markdownCell keeps a value on one table row.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func exportMarkdown(w io.Writer, records []aggregate.DisplayRecord) {
	fmt.Fprintln(w, "# Results")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Criterion | Category | Gate | Status | Sources |")
	fmt.Fprintln(w, "|-----------|----------|------|--------|---------|")
	for _, r := range records {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			markdownCell(r.Criterion.Question), markdownCell(r.Category), r.Gate.Label(), r.Status, markdownCell(sourceNames(r)))
	}
}
