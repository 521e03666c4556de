package analysis

import (
	"encoding/json"
	"strings"

	"github.com/tablegate/tablegate/internal/gateway"
)

// DuplicateRecord is the per-record projection included in a duplicate group:
// only the compared fields, plus identity and creation time.
type DuplicateRecord struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"created_time,omitempty"`
}

// DuplicateGroup is a set of records sharing the same normalized values for
// the compared fields.
type DuplicateGroup struct {
	DuplicateValues map[string]any    `json:"duplicate_values"`
	RecordCount     int               `json:"record_count"`
	Records         []DuplicateRecord `json:"records"`
}

// normalizeValue prepares a field value for duplicate comparison: strings are
// trimmed and lower-cased, everything else compares as-is.
func normalizeValue(v any) any {
	if s, ok := v.(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return v
}

// FindDuplicates groups records by the normalized values of the compared
// fields and returns the groups with more than one member, in first-seen
// order. With ignoreEmpty set, a record missing any compared field is
// excluded from grouping entirely.
func FindDuplicates(records []gateway.Record, fields []string, ignoreEmpty bool) []DuplicateGroup {
	type group struct {
		normalized []any
		records    []gateway.Record
	}
	groups := map[string]*group{}
	var order []string

	for _, rec := range records {
		normalized := make([]any, 0, len(fields))
		skip := false
		for _, field := range fields {
			v := rec.Fields[field]
			if ignoreEmpty && isEmpty(v) {
				skip = true
				break
			}
			normalized = append(normalized, normalizeValue(v))
		}
		if skip {
			continue
		}

		key := groupKey(normalized)
		g, ok := groups[key]
		if !ok {
			g = &group{normalized: normalized}
			groups[key] = g
			order = append(order, key)
		}
		g.records = append(g.records, rec)
	}

	var out []DuplicateGroup
	for _, key := range order {
		g := groups[key]
		if len(g.records) < 2 {
			continue
		}
		values := make(map[string]any, len(fields))
		for i, field := range fields {
			values[field] = g.normalized[i]
		}
		dg := DuplicateGroup{
			DuplicateValues: values,
			RecordCount:     len(g.records),
		}
		for _, rec := range g.records {
			projected := make(map[string]any, len(fields))
			for _, field := range fields {
				projected[field] = rec.Fields[field]
			}
			dg.Records = append(dg.Records, DuplicateRecord{
				ID:          rec.ID,
				Fields:      projected,
				CreatedTime: rec.CreatedTime,
			})
		}
		out = append(out, dg)
	}
	return out
}

// groupKey serializes the normalized value tuple into a comparable map key.
func groupKey(values []any) string {
	b, err := json.Marshal(values)
	if err != nil {
		// Values come from decoded JSON; marshalling them back cannot fail.
		return ""
	}
	return string(b)
}
