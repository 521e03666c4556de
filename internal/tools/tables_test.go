package tools

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablegate/tablegate/internal/gateway"
)

func testSchema() gateway.Schema {
	return gateway.Schema{Tables: []gateway.Table{
		{
			ID:             "tbl1",
			Name:           "Contacts",
			Description:    "People we know",
			PrimaryFieldID: "fld1",
			Fields: []gateway.Field{
				{ID: "fld1", Name: "Name", Type: "singleLineText"},
				{ID: "fld2", Name: "Status", Type: "singleSelect", Options: map[string]any{
					"choices": []any{
						map[string]any{"name": "Active"},
						map[string]any{"name": "Archived"},
					},
				}},
				{ID: "fld3", Name: "Score", Type: "formula", Options: map[string]any{"formula": "LEN({Name})"}},
			},
			Views: []gateway.View{{ID: "viw1", Name: "All"}},
		},
		{ID: "tbl2", Name: "Tasks", Fields: []gateway.Field{{ID: "fld4", Name: "Title", Type: "singleLineText"}}},
	}}
}

func schemaStub(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		require.Equal(t, "/bases/app1/schema", r.URL.Path)
		jsonResponse(w, http.StatusOK, testSchema())
	})
}

func TestListTables(t *testing.T) {
	d := newTestDispatcher(t, schemaStub(t))

	res := d.Dispatch(context.Background(), "list_tables", map[string]any{"base_id": "app1"})
	out := decodeResult(t, res)

	assert.Equal(t, "app1", out["base_id"])
	assert.Equal(t, float64(2), out["table_count"])

	tables := out["tables"].([]any)
	require.Len(t, tables, 2)
	first := tables[0].(map[string]any)
	assert.Equal(t, "tbl1", first["id"])
	assert.Equal(t, "Contacts", first["name"])
	assert.Equal(t, "People we know", first["description"])
	assert.Equal(t, float64(3), first["field_count"])
	assert.Equal(t, float64(1), first["view_count"])
}

func TestGetFieldInfo(t *testing.T) {
	d := newTestDispatcher(t, schemaStub(t))

	res := d.Dispatch(context.Background(), "get_field_info", map[string]any{
		"base_id":  "app1",
		"table_id": "Contacts", // resolves by name too
	})
	out := decodeResult(t, res)

	assert.Equal(t, "Contacts", out["table_name"])
	assert.Equal(t, "tbl1", out["table_id"])
	assert.Equal(t, float64(3), out["total_fields"])

	types := out["field_types"].(map[string]any)
	assert.Equal(t, float64(1), types["singleSelect"])

	fields := out["fields"].([]any)
	require.Len(t, fields, 3)

	name := fields[0].(map[string]any)
	assert.Equal(t, true, name["is_primary"])

	status := fields[1].(map[string]any)
	assert.Equal(t, float64(2), status["choice_count"])
	assert.Equal(t, []any{"Active", "Archived"}, status["choices"])

	score := fields[2].(map[string]any)
	assert.Equal(t, "LEN({Name})", score["formula"])
}

func TestGetFieldInfoNotFound(t *testing.T) {
	d := newTestDispatcher(t, schemaStub(t))

	res := d.Dispatch(context.Background(), "get_field_info", map[string]any{
		"base_id":  "app1",
		"table_id": "tbl_missing",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "NOT_FOUND")
	assert.Contains(t, res.Text, `table "tbl_missing" not found`)
}
