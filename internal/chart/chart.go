// Package chart lays out and renders the category breakdown pie chart.
package chart

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Canvas geometry.
const (
	Width     = 600
	Height    = 250
	legendRow = 20
	swatch    = 10
)

// Palette is the qualitative colour range. Slice i uses Palette[i%len(Palette)].
var Palette = []string{
	"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
}

var (
	ErrLengthMismatch = errors.New("data and labels differ in length")
	ErrNegativeValue  = errors.New("negative value")
)

// Slice is one laid-out wedge. Angles are radians clockwise from 12 o'clock.
type Slice struct {
	Index      int
	Label      string
	Value      float64
	StartAngle float64
	EndAngle   float64
	Color      string
}

// Tooltip is the hover text for the slice.
func (s Slice) Tooltip() string {
	return s.Label + ": " + formatValue(s.Value)
}

// Radius returns the pie radius for the canvas.
func Radius() float64 {
	return float64(min(Width, Height))/2 - 50
}

// Validate checks that data and labels are parallel and non-negative.
func Validate(data []float64, labels []string) error {
	if len(data) != len(labels) {
		return fmt.Errorf("%w: %d values, %d labels", ErrLengthMismatch, len(data), len(labels))
	}
	for i, v := range data {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrNegativeValue, labels[i], v)
		}
	}
	return nil
}

// Layout assigns each value a wedge proportional to its share of the total.
// Slices are returned in input order. Angles are allotted largest value
// first, ties in input order. Colours follow input position, not label.
func Layout(data []float64, labels []string) ([]Slice, error) {
	if err := Validate(data, labels); err != nil {
		return nil, err
	}

	var total float64
	for _, v := range data {
		total += v
	}
	k := 0.0
	if total > 0 {
		k = 2 * math.Pi / total
	}

	order := make([]int, len(data))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case data[a] > data[b]:
			return -1
		case data[a] < data[b]:
			return 1
		}
		return 0
	})

	out := make([]Slice, len(data))
	angle := 0.0
	for _, i := range order {
		end := angle + data[i]*k
		out[i] = Slice{
			Index:      i,
			Label:      labels[i],
			Value:      data[i],
			StartAngle: angle,
			EndAngle:   end,
			Color:      Palette[i%len(Palette)],
		}
		angle = end
	}
	return out, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
