package chart

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
)

// RenderSVG writes the pie chart with its legend as a standalone SVG document.
// Each wedge carries a <title> so viewers show the tooltip at the pointer.
func RenderSVG(w io.Writer, data []float64, labels []string) error {
	slices, err := Layout(data, labels)
	if err != nil {
		return err
	}
	r := Radius()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", Width, Height, Width, Height)
	fmt.Fprintf(bw, `<g transform="translate(%s,%s)">`+"\n", num(r+70), num(Height/2))
	for _, s := range slices {
		tip := html.EscapeString(s.Tooltip())
		fmt.Fprintf(bw, `<path d="%s" fill="%s" data-tooltip="%s"><title>%s</title></path>`+"\n",
			arcPath(s.StartAngle, s.EndAngle, r), s.Color, tip, tip)
	}

	// Legend to the right of the pie, centred vertically.
	startY := -float64(len(slices)*legendRow) / 2
	fmt.Fprintf(bw, `<g class="legend" transform="translate(%s,0)">`+"\n", num(r+50))
	for _, s := range slices {
		fmt.Fprintf(bw, `<g transform="translate(0,%s)"><rect width="%d" height="%d" fill="%s"/><text x="20" y="10" text-anchor="start" style="text-transform: capitalize">%s</text></g>`+"\n",
			num(startY+float64(s.Index*legendRow)), swatch, swatch, s.Color, html.EscapeString(s.Label))
	}
	bw.WriteString("</g>\n</g>\n</svg>\n")
	return bw.Flush()
}

// arcPath draws a wedge from the centre. Angles are clockwise from 12 o'clock.
func arcPath(start, end, r float64) string {
	span := end - start
	switch {
	case span <= 0:
		return "M0,0Z"
	case span >= 2*math.Pi-1e-9:
		// A single arc cannot close on itself, so draw two halves.
		return fmt.Sprintf("M0,%sA%s,%s,0,1,1,0,%sA%s,%s,0,1,1,0,%sZ",
			num(-r), num(r), num(r), num(r), num(r), num(r), num(-r))
	}
	x0, y0 := point(start, r)
	x1, y1 := point(end, r)
	large := 0
	if span > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M0,0L%s,%sA%s,%s,0,%d,1,%s,%sZ", num(x0), num(y0), num(r), num(r), large, num(x1), num(y1))
}

func point(angle, r float64) (float64, float64) {
	return r * math.Sin(angle), -r * math.Cos(angle)
}

// num formats coordinates with at most three decimals.
func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // normalise -0
	}
	return formatValue(v)
}
