package storage

import (
	"fmt"
	"math"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/musdechocolate/hrai/internal/metadata"
)

// Payload keys stored alongside each vector.
const (
	payloadText     = "text"
	payloadFilename = "filename"
	payloadFilepath = "filepath"
	payloadMetadata = "metadata"
)

// buildPayload converts a resume into the payload map stored in Qdrant:
// {text, filename, filepath, metadata: {...}}.
func buildPayload(r *Resume) (map[string]any, error) {
	meta, err := r.Metadata.ToMap()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		payloadText:     r.Text,
		payloadFilename: r.Filename,
		payloadFilepath: r.Filepath,
		payloadMetadata: intifyWholeNumbers(meta),
	}, nil
}

// intifyWholeNumbers rewrites whole-number float64s (the shape JSON
// decoding produces) as int64 so they are stored as integer payload
// values. Qdrant exact-match conditions work on integers but not on
// doubles, so this keeps fields like age and years_of_experience
// filterable.
func intifyWholeNumbers(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = intifyValue(v)
	}
	return out
}

func intifyValue(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return int64(val)
		}
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = intifyValue(item)
		}
		return out
	case map[string]any:
		return intifyWholeNumbers(val)
	default:
		return v
	}
}

// resumeFromPayload rebuilds a resume from a stored point payload.
func resumeFromPayload(id string, payload map[string]*qdrant.Value) (*Resume, error) {
	rec := metadata.NewRecord()
	if metaVal, ok := payload[payloadMetadata]; ok && metaVal.GetStructValue() != nil {
		m, ok := valueToAny(metaVal).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: metadata payload is not an object", ErrStore)
		}
		var err error
		rec, err = metadata.FromMap(m)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
	}

	return &Resume{
		ID:       id,
		Text:     payload[payloadText].GetStringValue(),
		Filename: payload[payloadFilename].GetStringValue(),
		Filepath: payload[payloadFilepath].GetStringValue(),
		Metadata: rec,
	}, nil
}

// valueToAny converts a Qdrant payload value back into plain Go values.
func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return float64(kind.IntegerValue) // JSON number shape
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			items = append(items, valueToAny(item))
		}
		return items
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		m := make(map[string]any, len(fields))
		for k, item := range fields {
			m[k] = valueToAny(item)
		}
		return m
	default:
		return nil
	}
}

// resolveFilterKey maps a caller-supplied filter key onto the payload
// namespace. Bare keys address the structured metadata object; the
// top-level payload fields and dotted paths pass through unchanged.
func resolveFilterKey(key string) string {
	switch key {
	case payloadText, payloadFilename, payloadFilepath:
		return key
	}
	if strings.Contains(key, ".") {
		return key
	}
	return payloadMetadata + "." + key
}

// buildFilter translates an exact-match filter map into a conjunctive
// Qdrant filter. A nil or empty map means no restriction.
func buildFilter(filter map[string]any) (*qdrant.Filter, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	must := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		resolved := resolveFilterKey(key)
		switch val := value.(type) {
		case string:
			must = append(must, qdrant.NewMatch(resolved, val))
		case bool:
			must = append(must, qdrant.NewMatchBool(resolved, val))
		case int:
			must = append(must, qdrant.NewMatchInt(resolved, int64(val)))
		case int64:
			must = append(must, qdrant.NewMatchInt(resolved, val))
		case float64:
			if val != math.Trunc(val) {
				return nil, fmt.Errorf("%w: %s=%v (exact match on fractional numbers is not supported)",
					ErrBadFilterValue, key, val)
			}
			must = append(must, qdrant.NewMatchInt(resolved, int64(val)))
		default:
			return nil, fmt.Errorf("%w: %s has type %T", ErrBadFilterValue, key, value)
		}
	}

	return &qdrant.Filter{Must: must}, nil
}
