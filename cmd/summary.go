package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/scout/internal/chart"
	"github.com/joescharf/scout/internal/output"
)

var (
	summaryChart string
	summaryJSON  bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarise the review and the negative findings by category",
	Long: `Summarise the review: the project, the gates it covers, the project's
results summary, and how many negative results fall in each category.

With --chart the category breakdown is also rendered as a pie chart.
The format follows the file extension: .png, otherwise SVG.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return summaryRun(cmd.Context())
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryChart, "chart", "", "Write the category pie chart to this file (.svg or .png)")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(summaryCmd)
}

func summaryRun(ctx context.Context) error {
	c, err := newClient(nil)
	if err != nil {
		return err
	}
	sum, err := newAggregator(c).Summarise(ctx)
	if err != nil {
		return err
	}

	if summaryJSON {
		if err := ui.JSON(sum); err != nil {
			return err
		}
	} else {
		ui.Field("Project", output.Bold(sum.ProjectName))
		ui.Field("Review type", sum.ReviewType)
		ui.Field("Negative results", strconv.Itoa(sum.NegativeCount))
		fmt.Fprintln(ui.Out)

		if len(sum.Labels) > 0 {
			table := ui.Table([]string{"Category", "Negative"})
			for i, label := range sum.Labels {
				if err := table.Append([]string{label, strconv.Itoa(sum.Counts[i])}); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			fmt.Fprintln(ui.Out)
		}
		if sum.Summary != "" {
			ui.Field("Summary", "")
			fmt.Fprintln(ui.Out, sum.Summary)
		}
	}

	if summaryChart == "" {
		return nil
	}
	return writeChart(summaryChart, sum.ChartData(), sum.Labels)
}

func writeChart(path string, data []float64, labels []string) error {
	render := chart.RenderSVG
	if strings.EqualFold(filepath.Ext(path), ".png") {
		render = chart.RenderPNG
	}

	if dryRun {
		ui.DryRunMsg("Would write chart to %s", path)
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := render(f, data, labels); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	ui.Success("Chart written to %s", path)
	return nil
}
