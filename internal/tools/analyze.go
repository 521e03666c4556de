package tools

import (
	"context"

	"github.com/tablegate/tablegate/internal/analysis"
	"github.com/tablegate/tablegate/internal/gateway"
	"github.com/tablegate/tablegate/pkg/toolerr"
)

type analyzeTableInput struct {
	BaseID     string `json:"base_id" validate:"required"`
	TableID    string `json:"table_id" validate:"required"`
	SampleSize int    `json:"sample_size"`
}

type analysisSummary struct {
	RecordsAnalyzed int     `json:"records_analyzed"`
	TotalFields     int     `json:"total_fields"`
	AvgFillRate     float64 `json:"avg_fill_rate"`
}

type analyzeTableOutput struct {
	TableName           string                        `json:"table_name"`
	AnalysisSummary     analysisSummary               `json:"analysis_summary"`
	FieldAnalysis       map[string]analysis.FieldStat `json:"field_analysis"`
	DataQualityInsights []string                      `json:"data_quality_insights"`
}

// handleAnalyzeTableData fetches the schema plus a bounded record sample and
// computes per-field statistics and data-quality insights.
func (d *Dispatcher) handleAnalyzeTableData(ctx context.Context, args map[string]any) (any, error) {
	var in analyzeTableInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	sampleSize := clampPositive(in.SampleSize, d.limits.RecordSampleLimit, d.limits.RecordSampleLimit)

	schema, err := d.gw.FetchSchema(ctx, in.BaseID)
	if err != nil {
		return nil, err
	}
	table, ok := schema.FindTable(in.TableID)
	if !ok {
		return nil, &toolerr.NotFoundError{Kind: "table", Name: in.TableID}
	}

	records, err := d.gw.ListRecords(ctx, in.BaseID, in.TableID, gateway.RecordQuery{MaxRecords: sampleSize})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return "No records found in table", nil
	}

	stats := analysis.AnalyzeFields(table.Fields, records)
	fieldAnalysis := make(map[string]analysis.FieldStat, len(stats))
	for _, s := range stats {
		fieldAnalysis[s.FieldName] = s
	}

	return analyzeTableOutput{
		TableName: table.Name,
		AnalysisSummary: analysisSummary{
			RecordsAnalyzed: len(records),
			TotalFields:     len(table.Fields),
			AvgFillRate:     analysis.AverageFillRate(stats),
		},
		FieldAnalysis:       fieldAnalysis,
		DataQualityInsights: analysis.QualityInsights(stats),
	}, nil
}

type findDuplicatesInput struct {
	BaseID      string   `json:"base_id" validate:"required"`
	TableID     string   `json:"table_id" validate:"required"`
	Fields      []string `json:"fields" validate:"required,min=1,dive,fieldname"`
	IgnoreEmpty *bool    `json:"ignore_empty"`
}

type findDuplicatesOutput struct {
	TableID               string                    `json:"table_id"`
	DuplicateCheckFields  []string                  `json:"duplicate_check_fields"`
	TotalRecordsChecked   int                       `json:"total_records_checked"`
	DuplicateGroupsFound  int                       `json:"duplicate_groups_found"`
	TotalDuplicateRecords int                       `json:"total_duplicate_records"`
	Duplicates            []analysis.DuplicateGroup `json:"duplicates"`
}

// handleFindDuplicates groups up to the scan limit of records by normalized
// values of the compared fields and reports groups with more than one member.
func (d *Dispatcher) handleFindDuplicates(ctx context.Context, args map[string]any) (any, error) {
	var in findDuplicatesInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	ignoreEmpty := true
	if in.IgnoreEmpty != nil {
		ignoreEmpty = *in.IgnoreEmpty
	}

	records, err := d.gw.ListRecords(ctx, in.BaseID, in.TableID, gateway.RecordQuery{MaxRecords: d.limits.ScanRecordLimit})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return "No records found in table", nil
	}

	groups := analysis.FindDuplicates(records, in.Fields, ignoreEmpty)
	total := 0
	for _, g := range groups {
		total += g.RecordCount
	}
	if groups == nil {
		groups = []analysis.DuplicateGroup{}
	}

	return findDuplicatesOutput{
		TableID:               in.TableID,
		DuplicateCheckFields:  in.Fields,
		TotalRecordsChecked:   len(records),
		DuplicateGroupsFound:  len(groups),
		TotalDuplicateRecords: total,
		Duplicates:            groups,
	}, nil
}
