package chart

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Proportional(t *testing.T) {
	slices, err := Layout([]float64{3, 1}, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, slices, 2)

	a, b := slices[0], slices[1]
	assert.InDelta(t, 0, a.StartAngle, 1e-9)
	assert.InDelta(t, 1.5*math.Pi, a.EndAngle, 1e-9)
	assert.InDelta(t, 1.5*math.Pi, b.StartAngle, 1e-9)
	assert.InDelta(t, 2*math.Pi, b.EndAngle, 1e-9)

	spanA := a.EndAngle - a.StartAngle
	spanB := b.EndAngle - b.StartAngle
	assert.InDelta(t, 3, spanA/spanB, 1e-9)

	assert.Equal(t, "A: 3", a.Tooltip())
	assert.Equal(t, "B: 1", b.Tooltip())
}

func TestLayout_LargestFirstInputOrderKept(t *testing.T) {
	slices, err := Layout([]float64{1, 2, 1}, []string{"x", "y", "z"})
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "z"}, []string{slices[0].Label, slices[1].Label, slices[2].Label})
	assert.InDelta(t, 0, slices[1].StartAngle, 1e-9)
	assert.InDelta(t, math.Pi, slices[0].StartAngle, 1e-9)
	assert.InDelta(t, 1.5*math.Pi, slices[2].StartAngle, 1e-9)
}

func TestLayout_TotalIsFullCircle(t *testing.T) {
	slices, err := Layout([]float64{5, 2, 7, 1}, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	var total float64
	for _, s := range slices {
		total += s.EndAngle - s.StartAngle
	}
	assert.InDelta(t, 2*math.Pi, total, 1e-9)
}

func TestLayout_ColourByPosition(t *testing.T) {
	labels := make([]string, 12)
	data := make([]float64, 12)
	for i := range labels {
		labels[i] = string(rune('a' + i))
		data[i] = 1
	}
	slices, err := Layout(data, labels)
	require.NoError(t, err)
	for i, s := range slices {
		assert.Equal(t, Palette[i%10], s.Color)
	}

	// Reordering labels moves colours with position, not with the label.
	swapped, err := Layout([]float64{1, 1}, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, Palette[0], swapped[0].Color)
	assert.Equal(t, "b", swapped[0].Label)
}

func TestLayout_AllZero(t *testing.T) {
	slices, err := Layout([]float64{0, 0}, []string{"a", "b"})
	require.NoError(t, err)
	for _, s := range slices {
		assert.Zero(t, s.EndAngle-s.StartAngle)
	}
}

func TestValidate(t *testing.T) {
	_, err := Layout([]float64{1}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Layout([]float64{1, -1}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrNegativeValue)

	_, err = Layout([]float64{math.NaN()}, []string{"a"})
	assert.ErrorIs(t, err, ErrNegativeValue)
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, []float64{3, 1}, []string{"A", "B & C"}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<svg "))
	assert.Contains(t, out, `width="600" height="250"`)
	assert.Equal(t, 2, strings.Count(out, "<path "))
	assert.Contains(t, out, "<title>A: 3</title>")
	assert.Contains(t, out, `data-tooltip="B &amp; C: 1"`)
	assert.Contains(t, out, `fill="#4e79a7"`)
	assert.Contains(t, out, `fill="#f28e2c"`)
	assert.Equal(t, 2, strings.Count(out, `<rect width="10" height="10"`))
	assert.Contains(t, out, `translate(145,125)`)
}

func TestRenderSVG_SingleSliceIsFullCircle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, []float64{4}, []string{"only"}))
	assert.Contains(t, buf.String(), "M0,-75A75,75,0,1,1,0,75A75,75,0,1,1,0,-75Z")
}

func TestRenderSVG_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, RenderSVG(&a, []float64{2, 5, 1}, []string{"x", "y", "z"}))
	require.NoError(t, RenderSVG(&b, []float64{2, 5, 1}, []string{"x", "y", "z"}))
	assert.Equal(t, a.String(), b.String())
}

func TestRenderSVG_Invalid(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderSVG(&buf, []float64{1, 2}, []string{"a"}), ErrLengthMismatch)
	assert.Zero(t, buf.Len())
}

func TestArcPath(t *testing.T) {
	assert.Equal(t, "M0,0Z", arcPath(1, 1, 75))
	// Quarter wedge from 12 to 3 o'clock.
	assert.Equal(t, "M0,0L0,-75A75,75,0,0,1,75,0Z", arcPath(0, math.Pi/2, 75))
	// More than half takes the large arc.
	assert.Contains(t, arcPath(0, 1.5*math.Pi, 75), ",0,1,1,")
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, []float64{3, 1, 0}, []string{"A", "B", "C"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestRenderPNG_Invalid(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderPNG(&buf, []float64{-1}, []string{"a"}), ErrNegativeValue)
}
