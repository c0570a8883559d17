package aggregate

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/joescharf/scout/internal/client"
	"github.com/joescharf/scout/internal/models"
)

// Summary backs the landing page: what the negative findings are about and
// which project they belong to.
type Summary struct {
	ProjectName   string        `json:"project_name"`
	Summary       string        `json:"summary"`
	ReviewType    string        `json:"review_type"`
	Gates         []models.Gate `json:"gates"`
	NegativeCount int           `json:"negative_count"`
	// Labels and Counts are parallel, in first-seen category order.
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// ChartData returns Counts as chart input.
func (s Summary) ChartData() []float64 {
	out := make([]float64, len(s.Counts))
	for i, c := range s.Counts {
		out[i] = float64(c)
	}
	return out
}

// Summarise counts the categories of the criteria behind negative results and
// attaches the first project's details.
func (a *Aggregator) Summarise(ctx context.Context) (Summary, error) {
	items, err := a.Items.FetchReadItemsByAttribute(ctx, client.Filters{
		Model:   models.ModelResult,
		Filters: map[string]any{"answer": string(models.AnswerNegative)},
	})
	if err != nil {
		return Summary{}, err
	}
	results, err := models.DecodeResults(items)
	if err != nil {
		return Summary{}, fmt.Errorf("decode results: %w", err)
	}

	criteria, err := iter.MapErr(results, func(r *models.Result) (models.Criterion, error) {
		item, err := a.Items.FetchItem(ctx, models.ModelCriterion, r.Criterion.ID)
		if err != nil {
			return models.Criterion{}, err
		}
		return models.Decode[models.Criterion](item)
	})
	if err != nil {
		return Summary{}, err
	}

	s := Summary{NegativeCount: len(results)}
	s.Labels, s.Counts = CountCategories(criteria)
	s.Gates, s.ReviewType = reviewType(criteria)

	projects, err := a.Items.FetchItems(ctx, models.ModelProject)
	if err != nil {
		return Summary{}, err
	}
	if len(projects) > 0 {
		p, err := models.Decode[models.Project](projects[0])
		if err != nil {
			return Summary{}, fmt.Errorf("decode project: %w", err)
		}
		s.ProjectName = p.BaseName()
		s.Summary = p.Summary()
	}
	return s, nil
}

// CountCategories tallies criterion categories in first-seen order.
func CountCategories(criteria []models.Criterion) ([]string, []int) {
	labels := []string{}
	counts := []int{}
	index := map[string]int{}
	for _, c := range criteria {
		i, ok := index[c.Category]
		if !ok {
			i = len(labels)
			index[c.Category] = i
			labels = append(labels, c.Category)
			counts = append(counts, 0)
		}
		counts[i]++
	}
	return labels, counts
}

// reviewType returns the distinct gates and their labels sorted and comma-joined.
func reviewType(criteria []models.Criterion) ([]models.Gate, string) {
	seen := map[models.Gate]bool{}
	var gates []models.Gate
	for _, c := range criteria {
		if !seen[c.Gate] {
			seen[c.Gate] = true
			gates = append(gates, c.Gate)
		}
	}
	slices.SortFunc(gates, func(x, y models.Gate) int {
		return strings.Compare(x.Label(), y.Label())
	})
	labels := make([]string, len(gates))
	for i, g := range gates {
		labels[i] = g.Label()
	}
	return gates, strings.Join(labels, ", ")
}
