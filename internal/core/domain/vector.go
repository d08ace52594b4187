package domain

type VectorPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

type VectorHit struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
}

type FieldMatch struct {
	Key   string
	Value any
}

type FieldRange struct {
	Key string
	GTE *float64
	LTE *float64
}

// VectorFilter is a conjunction of field-match and range clauses applied
// to point payloads during search.
type VectorFilter struct {
	Match []FieldMatch
	Range []FieldRange
}
