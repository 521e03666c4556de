package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tablegate/tablegate/internal/analysis"
	"github.com/tablegate/tablegate/internal/gateway"
)

const defaultMetadataTableName = "Table Metadata"

type createMetadataInput struct {
	BaseID    string `json:"base_id" validate:"required"`
	TableName string `json:"table_name"`
}

type metadataSummary struct {
	TotalTablesAnalyzed int            `json:"total_tables_analyzed"`
	TotalFields         int            `json:"total_fields"`
	TableTypes          map[string]int `json:"table_types"`
}

type metadataPopulatedOutput struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	TableID        string          `json:"table_id"`
	TableName      string          `json:"table_name"`
	RecordsCreated int             `json:"records_created"`
	TableCreated   bool            `json:"table_created,omitempty"`
	Summary        metadataSummary `json:"metadata_summary"`
}

type metadataFallbackOutput struct {
	Success            bool             `json:"success"`
	Message            string           `json:"message"`
	ActionRequired     string           `json:"action_required"`
	SuggestedTableName string           `json:"suggested_table_name"`
	SuggestedFields    []map[string]any `json:"suggested_fields"`
	PreparedRecords    []map[string]any `json:"prepared_records"`
	RecordsReady       int              `json:"records_ready"`
	CreateError        string           `json:"create_error"`
	Summary            metadataSummary  `json:"metadata_summary"`
	Instructions       []string         `json:"fallback_instructions"`
}

// metadataFieldDefinitions is the fixed schema for a freshly created
// metadata table.
func metadataFieldDefinitions() []map[string]any {
	purposeChoices := []map[string]any{
		{"name": analysis.PurposeProjectTask, "color": "blueLight2"},
		{"name": analysis.PurposeContactPeople, "color": "greenLight2"},
		{"name": analysis.PurposeProductInventory, "color": "yellowLight2"},
		{"name": analysis.PurposeEventSchedule, "color": "orangeLight2"},
		{"name": analysis.PurposeContactInfo, "color": "redLight2"},
		{"name": analysis.PurposeFinancial, "color": "purpleLight2"},
		{"name": analysis.PurposeGeneral, "color": "grayLight2"},
	}
	return []map[string]any{
		{"name": "Table Name", "type": "singleLineText", "description": "Name of the table"},
		{"name": "Table ID", "type": "singleLineText", "description": "Unique identifier for the table"},
		{"name": "Description", "type": "multilineText", "description": "Table description"},
		{"name": "Field Count", "type": "number", "description": "Number of fields in the table"},
		{"name": "View Count", "type": "number", "description": "Number of views in the table"},
		{"name": "Field Types", "type": "multilineText", "description": "Summary of field types and counts"},
		{"name": "Primary Fields", "type": "multilineText", "description": "First three fields of the table"},
		{"name": "Purpose", "type": "singleSelect", "description": "Inferred purpose of the table", "options": purposeChoices},
		{"name": "Analysis Date", "type": "dateTime", "description": "When this analysis was performed"},
	}
}

// handleCreateMetadataTable analyzes every table in a base and writes one
// metadata record per table. An existing table whose name contains the
// requested name or "metadata" is reused; otherwise a new table is created
// through the gateway's table-creation endpoint. When creation fails the
// prepared records are returned with manual instructions instead of failing
// the call.
func (d *Dispatcher) handleCreateMetadataTable(ctx context.Context, args map[string]any) (any, error) {
	var in createMetadataInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	tableName := in.TableName
	if tableName == "" {
		tableName = defaultMetadataTableName
	}

	schema, err := d.gw.FetchSchema(ctx, in.BaseID)
	if err != nil {
		return nil, err
	}
	tables := schema.Tables

	metadataRecords := make([]map[string]any, 0, len(tables))
	now := time.Now().Format("2006-01-02 15:04:05")
	for _, t := range tables {
		metadataRecords = append(metadataRecords, buildMetadataRecord(t, now))
	}

	summary := metadataSummary{
		TotalTablesAnalyzed: len(tables),
		TableTypes:          analysis.CategorizeTables(tables),
	}
	for _, t := range tables {
		summary.TotalFields += len(t.Fields)
	}

	// Reuse an existing metadata table when one is present.
	if existing := findMetadataTable(tables, tableName); existing != nil {
		created, err := d.insertMetadataRecords(ctx, in.BaseID, existing.ID, metadataRecords)
		if err != nil {
			return nil, err
		}
		return metadataPopulatedOutput{
			Success:        true,
			Message:        fmt.Sprintf("Successfully created %d metadata records in existing table '%s'", created, existing.Name),
			TableID:        existing.ID,
			TableName:      existing.Name,
			RecordsCreated: created,
			Summary:        summary,
		}, nil
	}

	// No metadata table found: create one via the gateway's table-creation
	// endpoint, falling back to a manual-creation payload on failure.
	fieldDefs := metadataFieldDefinitions()
	createBody := map[string]any{
		"name":        tableName,
		"description": "Automatically generated metadata analysis of all tables in this base",
		"fields":      fieldDefs,
	}
	createResult, err := d.gw.Post(ctx, fmt.Sprintf("/api/web/bases/%s/tables", in.BaseID), createBody)
	if err != nil {
		d.logger.Error().Err(err).Str("base_id", in.BaseID).Msg("metadata table creation failed; returning manual fallback")
		return metadataFallbackOutput{
			Success:            false,
			Message:            fmt.Sprintf("Table creation failed. Error: %s", err.Error()),
			ActionRequired:     "MANUAL_TABLE_CREATION",
			SuggestedTableName: tableName,
			SuggestedFields:    fieldDefs,
			PreparedRecords:    metadataRecords,
			RecordsReady:       len(metadataRecords),
			CreateError:        err.Error(),
			Summary:            summary,
			Instructions: []string{
				fmt.Sprintf("1. Open base %s in the table service", in.BaseID),
				fmt.Sprintf("2. Create a new table named '%s'", tableName),
				"3. Add the fields listed in 'suggested_fields' with their specified types",
				"4. Run this tool again to populate the table with metadata",
			},
		}, nil
	}

	newTableID, _ := createResult["id"].(string)
	created, err := d.insertMetadataRecords(ctx, in.BaseID, newTableID, metadataRecords)
	if err != nil {
		return nil, err
	}
	return metadataPopulatedOutput{
		Success:        true,
		Message:        fmt.Sprintf("Successfully created new metadata table '%s' with %d records", tableName, created),
		TableID:        newTableID,
		TableName:      tableName,
		RecordsCreated: created,
		TableCreated:   true,
		Summary:        summary,
	}, nil
}

// buildMetadataRecord derives the metadata field values for one table.
func buildMetadataRecord(t gateway.Table, analysisDate string) map[string]any {
	description := t.Description
	if description == "" {
		description = "No description"
	}

	// Field-type histogram rendered in first-seen order.
	typeCounts := map[string]int{}
	var typeOrder []string
	for _, f := range t.Fields {
		ft := f.Type
		if ft == "" {
			ft = "unknown"
		}
		if _, seen := typeCounts[ft]; !seen {
			typeOrder = append(typeOrder, ft)
		}
		typeCounts[ft]++
	}
	typeParts := make([]string, 0, len(typeOrder))
	for _, ft := range typeOrder {
		typeParts = append(typeParts, fmt.Sprintf("%s: %d", ft, typeCounts[ft]))
	}

	primary := make([]string, 0, 3)
	for i, f := range t.Fields {
		if i == 3 {
			break
		}
		primary = append(primary, f.Name)
	}

	return map[string]any{
		"Table Name":     t.Name,
		"Table ID":       t.ID,
		"Description":    description,
		"Field Count":    len(t.Fields),
		"View Count":     len(t.Views),
		"Field Types":    strings.Join(typeParts, ", "),
		"Primary Fields": strings.Join(primary, ", "),
		"Purpose":        analysis.InferTablePurpose(t.Name, t.Fields),
		"Analysis Date":  analysisDate,
	}
}

// findMetadataTable returns the first table whose name contains the requested
// name or the word "metadata", case-insensitively.
func findMetadataTable(tables []gateway.Table, tableName string) *gateway.Table {
	want := strings.ToLower(tableName)
	for i := range tables {
		name := strings.ToLower(tables[i].Name)
		if strings.Contains(name, want) || strings.Contains(name, "metadata") {
			return &tables[i]
		}
	}
	return nil
}

// insertMetadataRecords writes records through the batch endpoint in chunks
// of the batch size limit, returning how many the gateway reports created.
func (d *Dispatcher) insertMetadataRecords(ctx context.Context, baseID, tableID string, records []map[string]any) (int, error) {
	created := 0
	for start := 0; start < len(records); start += d.limits.BatchSizeLimit {
		end := start + d.limits.BatchSizeLimit
		if end > len(records) {
			end = len(records)
		}
		batch := make([]map[string]any, 0, end-start)
		for _, rec := range records[start:end] {
			batch = append(batch, map[string]any{"fields": rec})
		}
		result, err := d.gw.Post(ctx, fmt.Sprintf("/bases/%s/tables/%s/records/batch", baseID, tableID), map[string]any{"records": batch})
		if err != nil {
			return created, err
		}
		if recs, ok := result["records"].([]any); ok {
			created += len(recs)
		}
	}
	return created, nil
}
