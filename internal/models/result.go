package models

import (
	"errors"
	"fmt"
)

// Answer is the verdict of a result.
type Answer string

const (
	AnswerPositive Answer = "Positive"
	AnswerNeutral  Answer = "Neutral"
	AnswerNegative Answer = "Negative"
)

// ErrMissingCriterion is returned when a result arrives without its criterion.
var ErrMissingCriterion = errors.New("result has no criterion")

// Result is the computed verdict for one criterion within one project.
type Result struct {
	ID              string     `json:"id"`
	Answer          Answer     `json:"answer"`
	FullText        string     `json:"full_text"`
	Criterion       *Criterion `json:"criterion"`
	Chunks          []Ref      `json:"chunks"`
	Project         *Project   `json:"project,omitempty"`
	Ratings         []Rating   `json:"ratings,omitempty"`
	CreatedDatetime Timestamp  `json:"created_datetime"`
	UpdatedDatetime *Timestamp `json:"updated_datetime,omitempty"`
}

// Validate enforces that every result references a criterion.
func (r Result) Validate() error {
	if r.Criterion == nil {
		return ErrMissingCriterion
	}
	return nil
}

// DecodeResults decodes and validates a result list.
func DecodeResults(items []Item) ([]Result, error) {
	results, err := DecodeAll[Result](items)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("result %s: %w", r.ID, err)
		}
	}
	return results, nil
}
