package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is the structured metadata extracted from one CV. Scalar fields
// are pointers so that an absent value serializes as JSON null; list
// fields are always non-nil so they serialize as []. Every field is
// present in every marshalled Record.
type Record struct {
	Name              *string     `json:"name"`
	Age               *int        `json:"age"`
	YearsOfExperience *float64    `json:"years_of_experience"`
	Skills            []string    `json:"skills"`
	Languages         []string    `json:"languages"`
	Education         []Education `json:"education"`
	CurrentRole       *string     `json:"current_role"`
	Location          *string     `json:"location"`
}

// Education is one education entry on a CV.
type Education struct {
	Degree      *string `json:"degree"`
	Institution *string `json:"institution"`
	Year        *int    `json:"year"`
}

// NewRecord returns the default template: all scalars null, all lists empty.
func NewRecord() Record {
	return Record{
		Skills:    []string{},
		Languages: []string{},
		Education: []Education{},
	}
}

// decodeRecord parses a model response into a Record. The content must be
// a JSON object; fields the model omitted keep their template defaults.
// Only an undecodable response is an error, never a missing field.
func decodeRecord(content string) (Record, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return Record{}, fmt.Errorf("%w: response is not a JSON object", ErrExtraction)
	}

	rec := NewRecord()
	if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
		return Record{}, fmt.Errorf("%w: decode response: %v", ErrExtraction, err)
	}

	rec.normalize()
	return rec, nil
}

// normalize makes defaulting total: list fields parsed as JSON null come
// back as nil slices and are reset to empty, so marshalled output always
// carries the full field set.
func (r *Record) normalize() {
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Languages == nil {
		r.Languages = []string{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
}

// ToMap converts the record into the generic map shape stored in the
// vector database payload. Absent scalars map to nil, absent lists to
// empty lists.
func (r Record) ToMap() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}

// FromMap rebuilds a Record from a stored payload map. Unknown keys are
// ignored; missing keys fall back to the template defaults.
func FromMap(m map[string]any) (Record, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Record{}, fmt.Errorf("marshal payload metadata: %w", err)
	}
	rec := NewRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal payload metadata: %w", err)
	}
	rec.normalize()
	return rec, nil
}
