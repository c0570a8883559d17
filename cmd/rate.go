package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/joescharf/scout/internal/aggregate"
	"github.com/joescharf/scout/internal/client"
	"github.com/joescharf/scout/internal/output"
	"github.com/joescharf/scout/internal/view"
)

var (
	rateUp   bool
	rateDown bool
)

var rateCmd = &cobra.Command{
	Use:   "rate <result-id>",
	Short: "Give a result a thumbs up or thumbs down",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rateRun(cmd.Context(), args[0], rateUp)
	},
}

func init() {
	rateCmd.Flags().BoolVar(&rateUp, "up", false, "Thumbs up: the result is a good response")
	rateCmd.Flags().BoolVar(&rateDown, "down", false, "Thumbs down: the result is a poor response")
	rateCmd.MarkFlagsMutuallyExclusive("up", "down")
	rateCmd.MarkFlagsOneRequired("up", "down")
	rootCmd.AddCommand(rateCmd)
}

func rateRun(ctx context.Context, resultID string, good bool) error {
	req := client.RatingRequest{ResultID: resultID, GoodResponse: good}
	if dryRun {
		ui.DryRunMsg("Would rate %s %s", resultID, output.ThumbsLabel(aggregate.ThumbsFor(good)))
		return nil
	}

	c, err := newClient(nil)
	if err != nil {
		return err
	}

	state := view.Reduce(view.NewResults(), view.RowSelected{Record: aggregate.DisplayRecord{ID: resultID}})
	out, err := c.RateResponse(ctx, req)
	if err != nil {
		state = view.Reduce(state, view.RateFailed{Err: err})
		ui.VerboseLog("%v", err)
		return errors.New(state.RateError)
	}
	state = view.Reduce(state, view.Rated{RecordID: resultID, Good: good})

	ui.Success("Rated %s %s", resultID, output.ThumbsLabel(state.Thumbs))
	if out.Message != "" {
		ui.VerboseLog("backend: %s", out.Message)
	}
	return nil
}
