package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Model names a backend table. Items are tagged by it at the data-access boundary.
type Model string

const (
	ModelFile      Model = "file"
	ModelChunk     Model = "chunk"
	ModelCriterion Model = "criterion"
	ModelResult    Model = "result"
	ModelProject   Model = "project"
	ModelRating    Model = "rating"
	ModelUser      Model = "user"
)

// Models lists every model the backend exposes.
var Models = []Model{ModelFile, ModelChunk, ModelCriterion, ModelResult, ModelProject, ModelRating, ModelUser}

// ParseModel normalises a model name and reports whether it is known.
func ParseModel(s string) (Model, bool) {
	m := Model(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Models {
		if m == known {
			return m, true
		}
	}
	return m, false
}

// Item is a schema-free backend record. Fields other than id are model-specific.
type Item map[string]any

// ID returns the record id, or "" when absent.
func (it Item) ID() string {
	if v, ok := it["id"].(string); ok {
		return v
	}
	return ""
}

// String returns a top-level string field, or "" when absent or not a string.
func (it Item) String(key string) string {
	if v, ok := it[key].(string); ok {
		return v
	}
	return ""
}

// Ref is a reference to another item embedded in a record.
type Ref struct {
	ID string `json:"id"`
}

// Decode converts a generic item into a typed record.
func Decode[T any](it Item) (T, error) {
	var out T
	data, err := json.Marshal(it)
	if err != nil {
		return out, fmt.Errorf("encode item: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode item %s: %w", it.ID(), err)
	}
	return out, nil
}

// DecodeAll converts a slice of items, stopping at the first failure.
func DecodeAll[T any](items []Item) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		v, err := Decode[T](it)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
