package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/scout/internal/aggregate"
	"github.com/joescharf/scout/internal/client"
	"github.com/joescharf/scout/internal/models"
	"github.com/joescharf/scout/internal/output"
	"github.com/joescharf/scout/internal/view"
)

var (
	resultsJSON   bool
	resultsStatus string
	resultMine    bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List review results, failing criteria first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return resultsRun(cmd.Context())
	},
}

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Inspect a single result",
}

var resultShowCmd = &cobra.Command{
	Use:   "show <result-id>",
	Short: "Show a result with its evidence, sources and latest rating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resultShowRun(cmd.Context(), args[0])
	},
}

func init() {
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "Print records as JSON")
	resultsCmd.Flags().StringVar(&resultsStatus, "status", "", "Only show results with this status (Positive, Neutral, Negative)")
	resultShowCmd.Flags().BoolVar(&resultsJSON, "json", false, "Print the record and its ratings as JSON")
	resultShowCmd.Flags().BoolVar(&resultMine, "mine", true, "Only consider your own ratings")

	resultCmd.AddCommand(resultShowCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(resultCmd)
}

func resultsRun(ctx context.Context) error {
	c, err := newClient(nil)
	if err != nil {
		return err
	}

	state := view.NewResults()
	records, err := newAggregator(c).LoadResults(ctx)
	if err != nil {
		state = view.Reduce(state, view.ResultsFailed{Err: err})
		ui.VerboseLog("%v", err)
		return errors.New(state.Error)
	}
	state = view.Reduce(state, view.ResultsLoaded{Records: filterStatus(records, resultsStatus)})

	if resultsJSON {
		return ui.JSON(state.Records)
	}
	if len(state.Records) == 0 {
		ui.Info("No results")
		return nil
	}
	return ui.ResultsTable(state.Records)
}

func filterStatus(records []aggregate.DisplayRecord, status string) []aggregate.DisplayRecord {
	if status == "" {
		return records
	}
	var out []aggregate.DisplayRecord
	for _, r := range records {
		if strings.EqualFold(string(r.Status), status) {
			out = append(out, r)
		}
	}
	return out
}

func resultShowRun(ctx context.Context, id string) error {
	c, err := newClient(nil)
	if err != nil {
		return err
	}
	agg := newAggregator(c)

	item, err := c.FetchItem(ctx, models.ModelResult, id)
	if err != nil {
		return err
	}
	r, err := models.Decode[models.Result](item)
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("result %s: %w", id, err)
	}

	records := agg.Aggregate(ctx, []models.Result{r})
	state := view.Reduce(view.NewResults(), view.ResultsLoaded{Records: records})
	state = view.Reduce(state, view.RowSelected{Record: records[0]})

	detail, err := agg.Detail(ctx, r.ID, resultMine)
	if err != nil {
		ui.Warning("Could not load ratings: %v", err)
	} else {
		state = view.Reduce(state, view.RatingsLoaded{RecordID: r.ID, Detail: detail})
	}

	if resultsJSON {
		return ui.JSON(map[string]any{"record": state.Selected, "detail": detail})
	}
	printRecord(ctx, c, *state.Selected, state.Thumbs)
	return nil
}

func printRecord(ctx context.Context, c *client.Client, rec aggregate.DisplayRecord, thumbs aggregate.Thumbs) {
	ui.Field("Criterion", output.Bold(rec.Criterion.Question))
	ui.Field("Category", rec.Category)
	gate := rec.Gate.Label()
	if link := c.FetchGateURL(ctx, rec.Gate); link != "" {
		gate += " (" + link + ")"
	}
	ui.Field("Gate", gate)
	ui.Field("Status", output.AnswerColor(rec.Status))
	ui.Field("Rating", output.ThumbsLabel(thumbs))
	fmt.Fprintln(ui.Out)

	if ev := output.Evidence(rec.Criterion.EvidencePoints()); ev != "" {
		ui.Field("Evidence", "")
		fmt.Fprintln(ui.Out, ev)
		fmt.Fprintln(ui.Out)
	}
	ui.Field("Justification", "")
	fmt.Fprintln(ui.Out, rec.Justification)
	fmt.Fprintln(ui.Out)

	ui.Field("Sources", "")
	for _, s := range rec.Sources {
		fmt.Fprintf(ui.Out, "  %s  %s\n", output.Cyan(s.FileName), s.ChunkID)
	}
}
