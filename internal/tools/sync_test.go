package tools

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablegate/tablegate/internal/gateway"
)

func syncStub(t *testing.T, source, target []gateway.Record) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bases/srcBase/tables/srcTbl/records":
			jsonResponse(w, http.StatusOK, gateway.RecordList{Records: source})
		case "/bases/dstBase/tables/dstTbl/records":
			jsonResponse(w, http.StatusOK, gateway.RecordList{Records: target})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
}

func syncArgs() map[string]any {
	return map[string]any{
		"source_base_id":  "srcBase",
		"source_table_id": "srcTbl",
		"target_base_id":  "dstBase",
		"target_table_id": "dstTbl",
		"key_field":       "Key",
	}
}

func TestSyncTablesDryRun(t *testing.T) {
	source := []gateway.Record{
		{ID: "s1", Fields: map[string]any{"Key": "K1", "Val": "new"}},
		{ID: "s2", Fields: map[string]any{"Key": "K2", "Val": "changed"}},
	}
	target := []gateway.Record{
		{ID: "t1", Fields: map[string]any{"Key": "K2", "Val": "old"}},
		{ID: "t2", Fields: map[string]any{"Key": "K3", "Val": "orphan"}},
	}
	d := newTestDispatcher(t, syncStub(t, source, target))

	res := d.Dispatch(context.Background(), "sync_tables", syncArgs())
	out := decodeResult(t, res)

	summary := out["sync_summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["source_records"])
	assert.Equal(t, float64(2), summary["target_records"])
	assert.Equal(t, float64(1), summary["records_to_create"])
	assert.Equal(t, float64(1), summary["records_to_update"])
	assert.Equal(t, float64(1), summary["records_to_delete"])

	assert.Equal(t, "Key", out["key_field"])
	assert.Equal(t, true, out["dry_run"])
	assert.Equal(t, "Dry run completed - no changes made. Set dry_run=false to execute sync.", out["message"])

	changes := out["changes"].(map[string]any)
	creates := changes["create"].([]any)
	require.Len(t, creates, 1)
	assert.Equal(t, "K1", creates[0].(map[string]any)["key"])

	updates := changes["update"].([]any)
	require.Len(t, updates, 1)
	assert.Equal(t, "K2", updates[0].(map[string]any)["key"])
	assert.Equal(t, "Field differences detected", updates[0].(map[string]any)["changes"])

	deletes := changes["delete"].([]any)
	require.Len(t, deletes, 1)
	assert.Equal(t, "t2", deletes[0].(map[string]any)["id"])
}

func TestSyncTablesNeverExecutes(t *testing.T) {
	var paths []string
	d := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		jsonResponse(w, http.StatusOK, gateway.RecordList{})
	}))

	args := syncArgs()
	args["dry_run"] = false
	res := d.Dispatch(context.Background(), "sync_tables", args)
	out := decodeResult(t, res)

	assert.Equal(t, false, out["dry_run"])
	assert.Equal(t, "Sync execution is not implemented for safety - use dry_run=true to preview changes.", out["message"])

	// Only the two reads happen; no writes even with dry_run=false.
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.Contains(t, p, "GET ")
	}
}

func TestSyncTablesPreviewCap(t *testing.T) {
	var source []gateway.Record
	for _, k := range []string{"K1", "K2", "K3", "K4", "K5", "K6", "K7"} {
		source = append(source, gateway.Record{ID: "s" + k, Fields: map[string]any{"Key": k}})
	}
	d := newTestDispatcher(t, syncStub(t, source, nil))

	res := d.Dispatch(context.Background(), "sync_tables", syncArgs())
	out := decodeResult(t, res)

	summary := out["sync_summary"].(map[string]any)
	assert.Equal(t, float64(7), summary["records_to_create"])

	changes := out["changes"].(map[string]any)
	assert.Len(t, changes["create"].([]any), 5, "change preview caps at 5 entries")
}
