// Package view holds the page state of the results table and the file
// viewer as immutable values updated by pure reducers.
package view

import (
	"slices"

	"github.com/joescharf/scout/internal/aggregate"
)

// Inline error messages.
const (
	MsgResultsFailed = "Failed to load results. Please try again."
	MsgRateFailed    = "Failed to submit rating. Please try again."
	MsgFileFailed    = "Failed to fetch file. Please try again."
	MsgFilesFailed   = "Failed to fetch files. Please try again."
)

// ResultsState is the state of the results page.
type ResultsState struct {
	Loading  bool
	Records  []aggregate.DisplayRecord
	Error    string
	Selected *aggregate.DisplayRecord
	Thumbs   aggregate.Thumbs
	// RateError is shown in the detail modal.
	RateError string
}

// Open reports whether the detail modal is shown.
func (s ResultsState) Open() bool { return s.Selected != nil }

// NewResults returns the state before the first load completes.
func NewResults() ResultsState {
	return ResultsState{Loading: true, Thumbs: aggregate.ThumbsNone}
}

// ResultsAction is an event on the results page.
type ResultsAction interface{ resultsAction() }

type (
	ResultsLoaded struct{ Records []aggregate.DisplayRecord }
	ResultsFailed struct{ Err error }
	RowSelected   struct{ Record aggregate.DisplayRecord }
	// RatingsLoaded carries the detail of RecordID; it is dropped when
	// another row has been selected since.
	RatingsLoaded struct {
		RecordID string
		Detail   aggregate.RowDetail
	}
	Rated struct {
		RecordID string
		Good     bool
	}
	RateFailed struct{ Err error }
	Closed     struct{}
)

func (ResultsLoaded) resultsAction() {}
func (ResultsFailed) resultsAction() {}
func (RowSelected) resultsAction()   {}
func (RatingsLoaded) resultsAction() {}
func (Rated) resultsAction()         {}
func (RateFailed) resultsAction()    {}
func (Closed) resultsAction()        {}

// Reduce returns the state after a. s is not modified.
func Reduce(s ResultsState, a ResultsAction) ResultsState {
	switch a := a.(type) {
	case ResultsLoaded:
		s.Loading = false
		s.Error = ""
		s.Records = slices.Clone(a.Records)
	case ResultsFailed:
		s.Loading = false
		s.Error = MsgResultsFailed
	case RowSelected:
		rec := a.Record
		s.Selected = &rec
		s.Thumbs = aggregate.ThumbsNone
		s.RateError = ""
	case RatingsLoaded:
		if s.selected(a.RecordID) {
			s.Thumbs = a.Detail.Thumbs
		}
	case Rated:
		if s.selected(a.RecordID) {
			s.Thumbs = aggregate.ThumbsFor(a.Good)
			s.RateError = ""
		}
	case RateFailed:
		if s.Selected != nil {
			s.RateError = MsgRateFailed
		}
	case Closed:
		s.Selected = nil
		s.Thumbs = aggregate.ThumbsNone
		s.RateError = ""
	}
	return s
}

func (s ResultsState) selected(id string) bool {
	return s.Selected != nil && s.Selected.ID == id
}
