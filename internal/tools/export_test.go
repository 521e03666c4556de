package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tablegate/tablegate/internal/gateway"
)

func exportStub(records []gateway.Record) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, gateway.RecordList{Records: records})
	})
}

func TestExportTableCSV(t *testing.T) {
	records := []gateway.Record{
		{ID: "r1", Fields: map[string]any{"Name": "Ann, Jr.", "Tags": []any{"a", "b"}}, CreatedTime: "2026-01-02T03:04:05Z"},
		{ID: "r2", Fields: map[string]any{"Name": "Bob"}, CreatedTime: "2026-01-03T00:00:00Z"},
	}
	d := newTestDispatcher(t, exportStub(records))

	res := d.Dispatch(context.Background(), "export_table_csv", map[string]any{
		"base_id":  "app1",
		"table_id": "tbl1",
	})
	out := decodeResult(t, res)

	assert.Equal(t, "Exported 2 records to CSV", out["message"])
	assert.Equal(t, float64(2), out["record_count"])
	assert.Equal(t, []any{"Name", "Tags"}, out["fields_exported"], "inferred fields are sorted")

	csvData := out["full_csv_data"].(string)
	lines := strings.Split(strings.TrimRight(csvData, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Record ID,Name,Tags,Created Time", lines[0])
	assert.Equal(t, `r1,"Ann, Jr.","a, b",2026-01-02T03:04:05Z`, lines[1])
	assert.Equal(t, "r2,Bob,,2026-01-03T00:00:00Z", lines[2])

	preview := out["csv_preview"].(string)
	assert.True(t, strings.HasPrefix(csvData, preview))
}

func TestExportTableCSVExplicitFields(t *testing.T) {
	records := []gateway.Record{
		{ID: "r1", Fields: map[string]any{"Name": "Ann", "Secret": "hide me"}},
	}
	d := newTestDispatcher(t, exportStub(records))

	res := d.Dispatch(context.Background(), "export_table_csv", map[string]any{
		"base_id":  "app1",
		"table_id": "tbl1",
		"fields":   []any{"Name"},
	})
	out := decodeResult(t, res)

	csvData := out["full_csv_data"].(string)
	assert.Contains(t, csvData, "Record ID,Name,Created Time")
	assert.NotContains(t, csvData, "hide me")
}

func TestExportTableXLSX(t *testing.T) {
	records := []gateway.Record{
		{ID: "r1", Fields: map[string]any{"Name": "Ann"}, CreatedTime: "2026-01-02T03:04:05Z"},
	}
	d := newTestDispatcher(t, exportStub(records))

	res := d.Dispatch(context.Background(), "export_table_csv", map[string]any{
		"base_id":  "app1",
		"table_id": "tbl1",
		"format":   "xlsx",
	})
	out := decodeResult(t, res)

	assert.Equal(t, "Exported 1 records to XLSX", out["message"])

	raw, err := base64.StdEncoding.DecodeString(out["xlsx_base64"].(string))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Record ID", "Name", "Created Time"}, rows[0])
	assert.Equal(t, []string{"r1", "Ann", "2026-01-02T03:04:05Z"}, rows[1])
}

func TestExportTableRejectsUnknownFormat(t *testing.T) {
	d := newTestDispatcher(t, exportStub(nil))

	res := d.Dispatch(context.Background(), "export_table_csv", map[string]any{
		"base_id":  "app1",
		"table_id": "tbl1",
		"format":   "pdf",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "VALIDATION")
}

func TestExportTableNoRecords(t *testing.T) {
	d := newTestDispatcher(t, exportStub(nil))

	res := d.Dispatch(context.Background(), "export_table_csv", map[string]any{
		"base_id":  "app1",
		"table_id": "tbl1",
	})
	require.False(t, res.IsError, res.Text)
	assert.Equal(t, "No records found to export", res.Text)
}
