package aggregate

import (
	"context"
	"fmt"

	"github.com/joescharf/scout/internal/models"
)

// Thumbs is the highlighted rating control in the detail view.
type Thumbs string

const (
	ThumbsNone Thumbs = "none"
	ThumbsUp   Thumbs = "up"
	ThumbsDown Thumbs = "down"
)

// ThumbsFor maps a rating verdict to the control to highlight.
func ThumbsFor(positive bool) Thumbs {
	if positive {
		return ThumbsUp
	}
	return ThumbsDown
}

// RowDetail is what the detail view needs beyond the record itself.
type RowDetail struct {
	Ratings []models.Rating `json:"ratings"`
	Latest  *models.Rating  `json:"latest,omitempty"`
	Thumbs  Thumbs          `json:"thumbs"`
}

// Detail loads the ratings of a result and reports the state of the most
// recent one.
func (a *Aggregator) Detail(ctx context.Context, recordID string, limitToUser bool) (RowDetail, error) {
	items, err := a.Items.FetchRelatedItems(ctx, recordID, models.ModelResult, models.ModelRating, limitToUser)
	if err != nil {
		return RowDetail{}, err
	}
	ratings, err := models.DecodeAll[models.Rating](items)
	if err != nil {
		return RowDetail{}, fmt.Errorf("decode ratings: %w", err)
	}

	d := RowDetail{Ratings: ratings, Thumbs: ThumbsNone}
	if latest, ok := models.LatestRating(ratings); ok {
		d.Latest = &latest
		d.Thumbs = ThumbsFor(latest.PositiveRating)
	}
	return d, nil
}
