// Package analysis holds the record-level compute used by the analytics,
// duplicate-detection, metadata, and sync tools: field statistics, data
// quality insights, duplicate grouping, table diffing, and purpose inference.
// Everything here is pure — records in, derived values out — so the tool
// handlers stay thin and the logic is testable without a gateway.
package analysis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tablegate/tablegate/internal/gateway"
)

// FieldStat summarizes one field across a record sample.
type FieldStat struct {
	FieldName    string  `json:"field_name"`
	FieldType    string  `json:"field_type"`
	TotalRecords int     `json:"total_records"`
	FilledCount  int     `json:"filled_count"`
	EmptyCount   int     `json:"empty_count"`
	FillRate     float64 `json:"fill_rate"`

	// Text-like fields
	AvgLength *float64 `json:"avg_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	MinLength *int     `json:"min_length,omitempty"`

	// Numeric fields
	AvgValue *float64 `json:"avg_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
	MinValue *float64 `json:"min_value,omitempty"`

	// Select fields
	UniqueValues []string `json:"unique_values,omitempty"`
	UniqueCount  *int     `json:"unique_count,omitempty"`
}

var textTypes = map[string]struct{}{
	"singleLineText": {},
	"multilineText":  {},
	"email":          {},
	"url":            {},
}

// isEmpty reports whether a field value counts as unfilled.
func isEmpty(v any) bool {
	return v == nil || v == ""
}

// AnalyzeFields computes per-field statistics for a record sample, one
// FieldStat per schema field, in schema order.
func AnalyzeFields(fields []gateway.Field, records []gateway.Record) []FieldStat {
	total := len(records)
	stats := make([]FieldStat, 0, len(fields))

	for _, field := range fields {
		var values []any
		empty := 0
		for _, rec := range records {
			v := rec.Fields[field.Name]
			if isEmpty(v) {
				empty++
			} else {
				values = append(values, v)
			}
		}

		stat := FieldStat{
			FieldName:    field.Name,
			FieldType:    field.Type,
			TotalRecords: total,
			FilledCount:  len(values),
			EmptyCount:   empty,
		}
		if total > 0 {
			stat.FillRate = round1(float64(len(values)) / float64(total) * 100)
		}

		switch {
		case isTextType(field.Type):
			fillTextStats(&stat, values)
		case field.Type == "number":
			fillNumberStats(&stat, values)
		case field.Type == "singleSelect" || field.Type == "multipleSelect":
			fillSelectStats(&stat, values)
		}

		stats = append(stats, stat)
	}
	return stats
}

func isTextType(t string) bool {
	_, ok := textTypes[t]
	return ok
}

func fillTextStats(stat *FieldStat, values []any) {
	if len(values) == 0 {
		return
	}
	sum, maxLen, minLen := 0, 0, math.MaxInt
	for _, v := range values {
		n := len(fmt.Sprint(v))
		sum += n
		if n > maxLen {
			maxLen = n
		}
		if n < minLen {
			minLen = n
		}
	}
	avg := round1(float64(sum) / float64(len(values)))
	stat.AvgLength = &avg
	stat.MaxLength = &maxLen
	stat.MinLength = &minLen
}

func fillNumberStats(stat *FieldStat, values []any) {
	var nums []float64
	for _, v := range values {
		if n, ok := toFloat(v); ok {
			nums = append(nums, n)
		}
		// Unparsable values are skipped, not reported.
	}
	if len(nums) == 0 {
		return
	}
	sum, maxV, minV := 0.0, nums[0], nums[0]
	for _, n := range nums {
		sum += n
		if n > maxV {
			maxV = n
		}
		if n < minV {
			minV = n
		}
	}
	avg := round2(sum / float64(len(nums)))
	stat.AvgValue = &avg
	stat.MaxValue = &maxV
	stat.MinValue = &minV
}

func fillSelectStats(stat *FieldStat, values []any) {
	seen := map[string]struct{}{}
	var unique []string
	add := func(v any) {
		s := fmt.Sprint(v)
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			unique = append(unique, s)
		}
	}
	for _, v := range values {
		if list, ok := v.([]any); ok {
			for _, item := range list {
				add(item)
			}
		} else {
			add(v)
		}
	}
	count := len(unique)
	stat.UniqueValues = unique
	stat.UniqueCount = &count
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }

// AverageFillRate is the mean fill rate across all field stats, one decimal.
func AverageFillRate(stats []FieldStat) float64 {
	if len(stats) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range stats {
		sum += s.FillRate
	}
	return round1(sum / float64(len(stats)))
}

// QualityInsights derives qualitative observations from field statistics:
// fields under 50% fill rate, completely empty fields, and fully filled
// fields. Order follows the stats slice (schema order).
func QualityInsights(stats []FieldStat) []string {
	var low, unused, complete []string
	for _, s := range stats {
		switch {
		case s.FillRate == 0:
			unused = append(unused, s.FieldName)
		case s.FillRate == 100:
			complete = append(complete, s.FieldName)
		}
		if s.FillRate < 50 {
			low = append(low, s.FieldName)
		}
	}

	var insights []string
	if len(low) > 0 {
		insights = append(insights, fmt.Sprintf("Low data completion: %s have <50%% fill rate", joinNames(low)))
	}
	if len(unused) > 0 {
		insights = append(insights, fmt.Sprintf("Unused fields: %s are completely empty", joinNames(unused)))
	}
	if len(complete) > 0 {
		insights = append(insights, fmt.Sprintf("Complete data: %s have 100%% fill rate", joinNames(complete)))
	}
	if len(insights) == 0 {
		insights = append(insights, "Data quality looks good - no major issues detected")
	}
	return insights
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
