// Package output formats scout data for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/scout/internal/aggregate"
	"github.com/joescharf/scout/internal/models"
)

// UI writes coloured messages and tables. DryRun turns mutating commands into previews.
type UI struct {
	Verbose bool
	DryRun  bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI on stdout and stderr.
func New() *UI {
	return &UI{Out: os.Stdout, ErrOut: os.Stderr}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	bold          = color.New(color.Bold).SprintFunc()
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

func Bold(s string) string { return bold(s) }
func Cyan(s string) string { return cyan(s) }

// AnswerColor colours a result verdict the way the results table does:
// green, orange and red.
func AnswerColor(a models.Answer) string {
	s := string(a)
	switch a {
	case models.AnswerPositive:
		return green(s)
	case models.AnswerNeutral:
		return yellow(s)
	case models.AnswerNegative:
		return red(s)
	default:
		return s
	}
}

// ThumbsLabel renders the highlighted rating control.
func ThumbsLabel(t aggregate.Thumbs) string {
	switch t {
	case aggregate.ThumbsUp:
		return green("\U0001F44D up")
	case aggregate.ThumbsDown:
		return red("\U0001F44E down")
	default:
		return "not rated"
	}
}

// Evidence formats evidence points: the lead-in on its own line, then one
// bullet per remaining point.
func Evidence(points []string) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(points[0])
	for _, p := range points[1:] {
		b.WriteString("\n  • ")
		b.WriteString(p)
	}
	return b.String()
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// Field prints a bold label and its value.
func (u *UI) Field(label, value string) {
	fmt.Fprintf(u.Out, "%s %s\n", bold(label+":"), value)
}

// JSON writes v indented.
func (u *UI) JSON(v any) error {
	enc := json.NewEncoder(u.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table creates a borderless left-aligned table.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// ResultsTable renders display records as Criterion, Category, Status and Sources.
func (u *UI) ResultsTable(records []aggregate.DisplayRecord) error {
	table := u.Table([]string{"ID", "Criterion", "Category", "Status", "Sources"})
	for _, r := range records {
		names := make([]string, len(r.Sources))
		for i, s := range r.Sources {
			names[i] = s.FileName
		}
		if err := table.Append([]string{
			r.ID,
			r.Criterion.Question,
			r.Category,
			AnswerColor(r.Status),
			strings.Join(names, ", "),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
