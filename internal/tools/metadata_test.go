package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablegate/tablegate/internal/analysis"
	"github.com/tablegate/tablegate/internal/gateway"
)

func metadataSchema(withMetadataTable bool) gateway.Schema {
	tables := []gateway.Table{
		{
			ID:   "tbl1",
			Name: "Project Tracker",
			Fields: []gateway.Field{
				{Name: "Title", Type: "singleLineText"},
				{Name: "Status", Type: "singleSelect"},
				{Name: "Due", Type: "date"},
				{Name: "Owner", Type: "singleLineText"},
			},
			Views: []gateway.View{{ID: "viw1", Name: "Board"}},
		},
		{
			ID:     "tbl2",
			Name:   "Misc Notes",
			Fields: []gateway.Field{{Name: "Body", Type: "multilineText"}},
		},
	}
	if withMetadataTable {
		tables = append(tables, gateway.Table{
			ID:     "tblMeta",
			Name:   "Base Metadata Log",
			Fields: []gateway.Field{{Name: "Table Name", Type: "singleLineText"}},
		})
	}
	return gateway.Schema{Tables: tables}
}

func TestCreateMetadataTableReusesExisting(t *testing.T) {
	var batchBodies []map[string]any
	d := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bases/app1/schema":
			jsonResponse(w, http.StatusOK, metadataSchema(true))
		case "/bases/app1/tables/tblMeta/records/batch":
			require.Equal(t, http.MethodPost, r.Method)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			batchBodies = append(batchBodies, body)
			records := body["records"].([]any)
			created := make([]any, len(records))
			for i := range records {
				created[i] = map[string]any{"id": "rec"}
			}
			jsonResponse(w, http.StatusOK, map[string]any{"records": created})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	res := d.Dispatch(context.Background(), "create_metadata_table", map[string]any{"base_id": "app1"})
	out := decodeResult(t, res)

	assert.Equal(t, true, out["success"])
	assert.Equal(t, "tblMeta", out["table_id"])
	assert.Equal(t, "Base Metadata Log", out["table_name"])
	assert.Equal(t, float64(3), out["records_created"], "one metadata record per table, metadata table included")
	assert.Contains(t, out["message"], "existing table 'Base Metadata Log'")

	summary := out["metadata_summary"].(map[string]any)
	assert.Equal(t, float64(3), summary["total_tables_analyzed"])
	assert.Equal(t, float64(6), summary["total_fields"])
	types := summary["table_types"].(map[string]any)
	assert.Equal(t, float64(1), types[analysis.PurposeProjectTask])

	require.Len(t, batchBodies, 1)
	first := batchBodies[0]["records"].([]any)[0].(map[string]any)
	fields := first["fields"].(map[string]any)
	assert.Equal(t, "Project Tracker", fields["Table Name"])
	assert.Equal(t, "tbl1", fields["Table ID"])
	assert.Equal(t, "No description", fields["Description"])
	assert.Equal(t, float64(4), fields["Field Count"])
	assert.Equal(t, float64(1), fields["View Count"])
	assert.Equal(t, "singleLineText: 2, singleSelect: 1, date: 1", fields["Field Types"])
	assert.Equal(t, "Title, Status, Due", fields["Primary Fields"])
	assert.Equal(t, analysis.PurposeProjectTask, fields["Purpose"])
	assert.NotEmpty(t, fields["Analysis Date"])
}

func TestCreateMetadataTableCreatesNew(t *testing.T) {
	var createdTable map[string]any
	d := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bases/app1/schema":
			jsonResponse(w, http.StatusOK, metadataSchema(false))
		case "/api/web/bases/app1/tables":
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createdTable))
			jsonResponse(w, http.StatusOK, map[string]any{"id": "tblNew"})
		case "/bases/app1/tables/tblNew/records/batch":
			jsonResponse(w, http.StatusOK, map[string]any{"records": []any{
				map[string]any{"id": "rec1"},
				map[string]any{"id": "rec2"},
			}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	res := d.Dispatch(context.Background(), "create_metadata_table", map[string]any{"base_id": "app1"})
	out := decodeResult(t, res)

	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["table_created"])
	assert.Equal(t, "tblNew", out["table_id"])
	assert.Equal(t, "Table Metadata", out["table_name"])
	assert.Equal(t, float64(2), out["records_created"])

	assert.Equal(t, "Table Metadata", createdTable["name"])
	defs := createdTable["fields"].([]any)
	require.Len(t, defs, 9)
	purpose := defs[7].(map[string]any)
	assert.Equal(t, "Purpose", purpose["name"])
	assert.Equal(t, "singleSelect", purpose["type"])
	assert.Len(t, purpose["options"].([]any), 7)
}

func TestCreateMetadataTableFallback(t *testing.T) {
	var batchCalls int32
	d := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bases/app1/schema":
			jsonResponse(w, http.StatusOK, metadataSchema(false))
		case "/api/web/bases/app1/tables":
			jsonResponse(w, http.StatusForbidden, map[string]any{"detail": "table creation not permitted"})
		default:
			atomic.AddInt32(&batchCalls, 1)
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	res := d.Dispatch(context.Background(), "create_metadata_table", map[string]any{"base_id": "app1"})
	out := decodeResult(t, res)

	assert.Equal(t, false, out["success"])
	assert.Equal(t, "MANUAL_TABLE_CREATION", out["action_required"])
	assert.Equal(t, "Table Metadata", out["suggested_table_name"])
	assert.Equal(t, float64(2), out["records_ready"])
	assert.Len(t, out["prepared_records"].([]any), 2)
	assert.Len(t, out["suggested_fields"].([]any), 9)
	assert.Contains(t, out["create_error"], "403")
	assert.NotEmpty(t, out["fallback_instructions"].([]any))
	assert.Equal(t, int32(0), atomic.LoadInt32(&batchCalls))
}
