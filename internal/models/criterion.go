package models

import (
	"strings"
)

// Gate is a workflow stage identifier such as GATE_0.
type Gate string

// Label returns the human-readable form of a gate: GATE_3 becomes "Gate 3".
// Unknown identifiers are returned unchanged.
func (g Gate) Label() string {
	s := string(g)
	if n, ok := strings.CutPrefix(s, "GATE_"); ok && len(n) == 1 && n[0] >= '0' && n[0] <= '5' {
		return "Gate " + n
	}
	return s
}

// Criterion is a single review question.
type Criterion struct {
	ID              string     `json:"id"`
	Question        string     `json:"question"`
	Evidence        string     `json:"evidence"`
	Category        string     `json:"category"`
	Gate            Gate       `json:"gate"`
	CreatedDatetime Timestamp  `json:"created_datetime"`
	UpdatedDatetime *Timestamp `json:"updated_datetime,omitempty"`
}

// EvidencePoints splits the evidence description on its `_` delimiters.
// The first segment is the lead-in; the rest are bullet points.
func (c Criterion) EvidencePoints() []string {
	if c.Evidence == "" {
		return nil
	}
	return strings.Split(c.Evidence, "_")
}
