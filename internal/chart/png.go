package chart

import (
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// RenderPNG writes the pie chart as a PNG using the same palette and canvas size.
// It fails when every value is zero.
func RenderPNG(w io.Writer, data []float64, labels []string) error {
	slices, err := Layout(data, labels)
	if err != nil {
		return err
	}

	values := make([]gochart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Value == 0 {
			continue
		}
		values = append(values, gochart.Value{
			Value: s.Value,
			Label: s.Tooltip(),
			Style: gochart.Style{
				FillColor:   drawing.ColorFromHex(strings.TrimPrefix(s.Color, "#")),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}

	pie := gochart.PieChart{
		Width:  Width,
		Height: Height,
		Values: values,
	}
	return pie.Render(gochart.PNG, w)
}
