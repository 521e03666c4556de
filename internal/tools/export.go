package tools

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tablegate/tablegate/internal/gateway"
	"github.com/tablegate/tablegate/pkg/toolerr"
)

const csvPreviewLines = 6

type exportTableInput struct {
	BaseID     string   `json:"base_id" validate:"required"`
	TableID    string   `json:"table_id" validate:"required"`
	Fields     []string `json:"fields"`
	View       string   `json:"view"`
	MaxRecords int      `json:"max_records"`
	Format     string   `json:"format"`
}

type exportCSVOutput struct {
	Message        string   `json:"message"`
	TableID        string   `json:"table_id"`
	FieldsExported []string `json:"fields_exported"`
	RecordCount    int      `json:"record_count"`
	CSVPreview     string   `json:"csv_preview"`
	FullCSVData    string   `json:"full_csv_data"`
}

type exportXLSXOutput struct {
	Message        string   `json:"message"`
	TableID        string   `json:"table_id"`
	FieldsExported []string `json:"fields_exported"`
	RecordCount    int      `json:"record_count"`
	XLSXBase64     string   `json:"xlsx_base64"`
}

// handleExportTableCSV fetches up to max_records records and renders them as
// CSV (default) or as a base64-encoded XLSX workbook. When no field list is
// given, the columns are inferred from the first record.
func (d *Dispatcher) handleExportTableCSV(ctx context.Context, args map[string]any) (any, error) {
	var in exportTableInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	format := strings.ToLower(strings.TrimSpace(in.Format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return nil, &toolerr.ValidationError{Msg: fmt.Sprintf("unsupported export format %q; use csv or xlsx", in.Format)}
	}
	maxRecords := clampPositive(in.MaxRecords, d.limits.ScanRecordLimit, 0)

	records, err := d.gw.ListRecords(ctx, in.BaseID, in.TableID, gateway.RecordQuery{MaxRecords: maxRecords, View: in.View})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return "No records found to export", nil
	}

	fields := in.Fields
	if len(fields) == 0 {
		for name := range records[0].Fields {
			fields = append(fields, name)
		}
		// Map iteration order is random; sort for a stable header.
		sort.Strings(fields)
	}

	header := make([]string, 0, len(fields)+2)
	header = append(header, "Record ID")
	header = append(header, fields...)
	header = append(header, "Created Time")

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row, rec.ID)
		for _, field := range fields {
			row = append(row, cellString(rec.Fields[field]))
		}
		row = append(row, rec.CreatedTime)
		rows = append(rows, row)
	}

	if format == "xlsx" {
		encoded, err := buildXLSX(header, rows)
		if err != nil {
			return nil, err
		}
		return exportXLSXOutput{
			Message:        fmt.Sprintf("Exported %d records to XLSX", len(records)),
			TableID:        in.TableID,
			FieldsExported: fields,
			RecordCount:    len(records),
			XLSXBase64:     encoded,
		}, nil
	}

	content, err := buildCSV(header, rows)
	if err != nil {
		return nil, err
	}
	return exportCSVOutput{
		Message:        fmt.Sprintf("Exported %d records to CSV", len(records)),
		TableID:        in.TableID,
		FieldsExported: fields,
		RecordCount:    len(records),
		CSVPreview:     previewLines(content, csvPreviewLines),
		FullCSVData:    content,
	}, nil
}

// cellString flattens one field value for export: lists join with ", ",
// null becomes empty, everything else stringifies.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func buildCSV(header []string, rows [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return sb.String(), nil
}

func buildXLSX(header []string, rows [][]string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := writeSheetRow(f, sheet, 1, header); err != nil {
		return "", err
	}
	for i, row := range rows {
		if err := writeSheetRow(f, sheet, i+2, row); err != nil {
			return "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("encode xlsx: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeSheetRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func previewLines(content string, n int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
