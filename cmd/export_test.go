package cmd

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRun_CSV(t *testing.T) {
	_, out := gatewayEnv(t)
	exportFormat = "csv"

	require.NoError(t, exportRun(context.Background()))

	rows, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Criterion", "Category", "Gate", "Status", "Justification", "Sources"}, rows[0])
	assert.Equal(t, resultNeg, rows[1][0])
	assert.Equal(t, "Gate 1", rows[1][3])
	assert.Equal(t, "Negative", rows[1][4])
	assert.Equal(t, "report.pdf", rows[1][6])
}

func TestExportRun_Markdown(t *testing.T) {
	_, out := gatewayEnv(t)
	exportFormat = "markdown"
	resultsStatus = "Negative"

	require.NoError(t, exportRun(context.Background()))

	s := out.String()
	assert.Contains(t, s, "# Results")
	assert.Contains(t, s, "| Is it Negative? | Risk | Gate 1 | Negative | report.pdf |")
	assert.NotContains(t, s, "Is it Positive?")
}

func TestExportRun_UnknownFormat(t *testing.T) {
	gatewayEnv(t)
	exportFormat = "xml"

	err := exportRun(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestMarkdownCell(t *testing.T) {
	assert.Equal(t, `a \| b c`, markdownCell("a | b\n c"))
}
