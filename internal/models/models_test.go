package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t *testing.T, s string) Timestamp {
	t.Helper()
	v, err := ParseTimestamp(s)
	require.NoError(t, err)
	return v
}

func TestParseModel(t *testing.T) {
	m, ok := ParseModel(" Criterion ")
	assert.True(t, ok)
	assert.Equal(t, ModelCriterion, m)

	_, ok = ParseModel("widgets")
	assert.False(t, ok)
}

func TestItemAccessors(t *testing.T) {
	it := Item{"id": "abc", "name": "doc.pdf", "page_num": 3.0}
	assert.Equal(t, "abc", it.ID())
	assert.Equal(t, "doc.pdf", it.String("name"))
	assert.Equal(t, "", it.String("page_num"))
	assert.Equal(t, "", Item{}.ID())
}

func TestDecode_Chunk(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","page_num":4,"text":"x","file":{"id":"f1","name":"a.pdf"}}`), &it))

	c, err := Decode[Chunk](it)
	require.NoError(t, err)
	assert.Equal(t, 4, c.PageNum)
	require.NotNil(t, c.File)
	assert.Equal(t, "a.pdf", c.File.Name)
}

// Records as the backend serialises them, nested relations included.
const (
	backendChunk = `{
		"id": "6c0f4a8e-1d2b-4c3a-9e8f-0a1b2c3d4e5f",
		"idx": 0,
		"text": "Benefits are expected from year two.",
		"page_num": 3,
		"created_datetime": "2024-09-10T12:34:56.123456",
		"updated_datetime": null,
		"file": {
			"id": "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d",
			"created_datetime": "2024-09-10T12:00:00",
			"updated_datetime": null,
			"type": ".pdf",
			"name": "plan.pdf",
			"clean_name": null,
			"summary": null,
			"source": null,
			"published_date": null,
			"s3_bucket": null,
			"s3_key": "uploads/plan.pdf",
			"storage_kind": "s3",
			"url": null
		},
		"results": []
	}`
	backendResult = `{
		"id": "1b2c3d4e-5f60-4a1b-8c2d-3e4f5a6b7c8d",
		"created_datetime": "2024-09-11T08:00:00",
		"updated_datetime": null,
		"answer": "Negative",
		"full_text": "No benefits realisation plan was found.",
		"criterion": {
			"id": "2c3d4e5f-6071-4b2c-9d3e-4f5a6b7c8d9e",
			"created_datetime": "2024-09-01T00:00:00",
			"updated_datetime": null,
			"gate": "GATE_2",
			"category": "Benefits",
			"question": "Is there a benefits plan?",
			"evidence": "Look for_a plan_an owner"
		},
		"project": {
			"id": "3d4e5f60-7182-4c3d-8e4f-5a6b7c8d9e0f",
			"created_datetime": "2024-09-01T00:00:00",
			"updated_datetime": null,
			"name": "alpha-dev",
			"results_summary": null
		},
		"chunks": [{
			"id": "6c0f4a8e-1d2b-4c3a-9e8f-0a1b2c3d4e5f",
			"idx": 0,
			"text": "Benefits are expected from year two.",
			"page_num": 3,
			"created_datetime": "2024-09-10T12:34:56.123456",
			"updated_datetime": null
		}],
		"ratings": [{
			"id": "4e5f6071-8293-4d4e-9f50-6b7c8d9e0f1a",
			"positive_rating": true,
			"created_datetime": "2024-09-12T09:30:00",
			"updated_datetime": null
		}]
	}`
	backendRating = `{
		"id": "4e5f6071-8293-4d4e-9f50-6b7c8d9e0f1a",
		"positive_rating": false,
		"created_datetime": "2024-09-12T09:30:00",
		"updated_datetime": null,
		"user": {
			"id": "5f607182-93a4-4e5f-8061-7c8d9e0f1a2b",
			"email": "reviewer@example.com",
			"created_datetime": "2024-09-01T00:00:00",
			"updated_datetime": null
		},
		"project": {
			"id": "3d4e5f60-7182-4c3d-8e4f-5a6b7c8d9e0f",
			"created_datetime": "2024-09-01T00:00:00",
			"updated_datetime": null,
			"name": "alpha-dev",
			"results_summary": "<p>Summary</p>"
		},
		"result": {
			"id": "1b2c3d4e-5f60-4a1b-8c2d-3e4f5a6b7c8d",
			"created_datetime": "2024-09-11T08:00:00",
			"updated_datetime": null,
			"answer": "Negative",
			"full_text": "No benefits realisation plan was found."
		}
	}`
)

func backendItem(t *testing.T, raw string) Item {
	t.Helper()
	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	return it
}

func TestDecode_BackendChunk(t *testing.T) {
	c, err := Decode[Chunk](backendItem(t, backendChunk))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Idx)
	assert.Equal(t, 3, c.PageNum)
	assert.False(t, c.CreatedDatetime.IsZero())
	assert.Nil(t, c.UpdatedDatetime)
	require.NotNil(t, c.File)
	assert.Equal(t, "plan.pdf", c.File.Name)
	assert.Equal(t, "plan.pdf", c.File.DisplayName())
	assert.Equal(t, ".pdf", c.File.Type)
	assert.Equal(t, "uploads/plan.pdf", c.File.S3Key)
	assert.Empty(t, c.File.URL)
}

func TestDecode_BackendResult(t *testing.T) {
	results, err := DecodeResults([]Item{backendItem(t, backendResult)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, AnswerNegative, r.Answer)
	require.NotNil(t, r.Criterion)
	assert.Equal(t, "Gate 2", r.Criterion.Gate.Label())
	assert.Equal(t, []string{"Look for", "a plan", "an owner"}, r.Criterion.EvidencePoints())
	assert.Equal(t, []Ref{{ID: "6c0f4a8e-1d2b-4c3a-9e8f-0a1b2c3d4e5f"}}, r.Chunks)
	require.NotNil(t, r.Project)
	assert.Equal(t, "alpha", r.Project.BaseName())
	assert.Empty(t, r.Project.Summary())
	require.Len(t, r.Ratings, 1)
	assert.True(t, r.Ratings[0].PositiveRating)
}

func TestDecode_BackendRating(t *testing.T) {
	r, err := Decode[Rating](backendItem(t, backendRating))
	require.NoError(t, err)
	assert.False(t, r.PositiveRating)
	assert.Nil(t, r.UpdatedDatetime)
	assert.True(t, r.Recency().Equal(time.Date(2024, 9, 12, 9, 30, 0, 0, time.UTC)))
	require.NotNil(t, r.User)
	assert.Equal(t, "reviewer@example.com", r.User.Email)
	require.NotNil(t, r.Result)
	assert.Equal(t, "1b2c3d4e-5f60-4a1b-8c2d-3e4f5a6b7c8d", r.Result.ID)
	require.NotNil(t, r.Project)
	assert.Equal(t, "<p>Summary</p>", r.Project.Summary())
}

func TestDecode_BackendFile(t *testing.T) {
	raw := `{"id":"9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d","created_datetime":"2024-09-10T12:00:00",` +
		`"updated_datetime":"2024-09-10T13:00:00","type":".pdf","name":"plan_v2.pdf","clean_name":"Plan v2",` +
		`"summary":"A plan.","source":"GOV.UK","published_date":"2024-01-01","s3_bucket":"docs",` +
		`"s3_key":"uploads/plan_v2.pdf","storage_kind":"s3","url":null,"project":null,"chunks":[]}`
	f, err := Decode[File](backendItem(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "Plan v2", f.DisplayName())
	assert.Equal(t, "GOV.UK", f.Source)
	assert.Equal(t, "s3", f.StorageKind)
	require.NotNil(t, f.UpdatedDatetime)
	assert.Equal(t, 13, f.UpdatedDatetime.Hour())
}

func TestDecodeResults_RequiresCriterion(t *testing.T) {
	items := []Item{
		{"id": "r1", "answer": "Negative", "criterion": map[string]any{"id": "k1"}},
		{"id": "r2", "answer": "Positive"},
	}
	_, err := DecodeResults(items)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCriterion)
	assert.Contains(t, err.Error(), "r2")
}

func TestTimestamp_BackendLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-09-10T12:34:56.123456",
		"2024-09-10T12:34:56Z",
		"2024-09-10 12:34:56",
		"2024-09-10",
	} {
		t.Run(s, func(t *testing.T) {
			v := ts(t, s)
			assert.Equal(t, 2024, v.Year())
			assert.Equal(t, time.September, v.Month())
		})
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTimestamp_NullUnmarshal(t *testing.T) {
	var r Rating
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","created_datetime":"2024-01-01T00:00:00","updated_datetime":null}`), &r))
	assert.Nil(t, r.UpdatedDatetime)
	assert.False(t, r.CreatedDatetime.IsZero())
}

func TestGateLabel(t *testing.T) {
	assert.Equal(t, "Gate 0", Gate("GATE_0").Label())
	assert.Equal(t, "Gate 5", Gate("GATE_5").Label())
	assert.Equal(t, "GATE_9", Gate("GATE_9").Label())
	assert.Equal(t, "Discovery", Gate("Discovery").Label())
}

func TestEvidencePoints(t *testing.T) {
	c := Criterion{Evidence: "Consider:_budget_timeline"}
	assert.Equal(t, []string{"Consider:", "budget", "timeline"}, c.EvidencePoints())
	assert.Nil(t, Criterion{}.EvidencePoints())
}

func TestFileDisplayName(t *testing.T) {
	clean := "Business Case"
	assert.Equal(t, "Business Case", File{Name: "bc_v2.pdf", CleanName: &clean}.DisplayName())
	assert.Equal(t, "bc_v2.pdf", File{Name: "bc_v2.pdf"}.DisplayName())
}

func TestProjectBaseName(t *testing.T) {
	assert.Equal(t, "alpha", Project{Name: "alpha-dev-2"}.BaseName())
	assert.Equal(t, "beta", Project{Name: "beta"}.BaseName())
}

func TestLatestRating_PicksMostRecent(t *testing.T) {
	updated := ts(t, "2024-03-01T00:00:00")
	ratings := []Rating{
		{ID: "old", CreatedDatetime: ts(t, "2024-01-01T00:00:00")},
		{ID: "updated", CreatedDatetime: ts(t, "2023-12-01T00:00:00"), UpdatedDatetime: &updated, PositiveRating: true},
		{ID: "mid", CreatedDatetime: ts(t, "2024-02-01T00:00:00")},
	}

	latest, ok := LatestRating(ratings)
	require.True(t, ok)
	// The oldest rating must never win, regardless of input order.
	assert.Equal(t, "updated", latest.ID)
	assert.True(t, latest.PositiveRating)
}

func TestLatestRating_FallsBackToCreated(t *testing.T) {
	ratings := []Rating{
		{ID: "a", CreatedDatetime: ts(t, "2024-02-01T00:00:00")},
		{ID: "b", CreatedDatetime: ts(t, "2024-01-01T00:00:00")},
	}
	latest, ok := LatestRating(ratings)
	require.True(t, ok)
	assert.Equal(t, "a", latest.ID)

	_, ok = LatestRating(nil)
	assert.False(t, ok)
}
