package tools

import (
	"context"

	"github.com/tablegate/tablegate/internal/analysis"
	"github.com/tablegate/tablegate/internal/gateway"
)

const syncPreviewChanges = 5

type syncTablesInput struct {
	SourceBaseID  string `json:"source_base_id" validate:"required"`
	SourceTableID string `json:"source_table_id" validate:"required"`
	TargetBaseID  string `json:"target_base_id" validate:"required"`
	TargetTableID string `json:"target_table_id" validate:"required"`
	KeyField      string `json:"key_field" validate:"required"`
	DryRun        *bool  `json:"dry_run"`
}

type syncSummary struct {
	SourceRecords   int `json:"source_records"`
	TargetRecords   int `json:"target_records"`
	RecordsToCreate int `json:"records_to_create"`
	RecordsToUpdate int `json:"records_to_update"`
	RecordsToDelete int `json:"records_to_delete"`
}

type syncCreateChange struct {
	Key    any            `json:"key"`
	Fields map[string]any `json:"fields"`
}

type syncUpdateChange struct {
	Key     any    `json:"key"`
	Changes string `json:"changes"`
}

type syncDeleteChange struct {
	Key any    `json:"key"`
	ID  string `json:"id"`
}

type syncChanges struct {
	Create []syncCreateChange `json:"create"`
	Update []syncUpdateChange `json:"update"`
	Delete []syncDeleteChange `json:"delete"`
}

type syncTablesOutput struct {
	SyncSummary syncSummary `json:"sync_summary"`
	KeyField    string      `json:"key_field"`
	DryRun      bool        `json:"dry_run"`
	Changes     syncChanges `json:"changes"`
	Message     string      `json:"message"`
}

// handleSyncTables fetches bounded record sets from both tables, diffs them
// by key field, and reports an advisory plan. Write-back is not implemented:
// dry_run=false still only previews.
func (d *Dispatcher) handleSyncTables(ctx context.Context, args map[string]any) (any, error) {
	var in syncTablesInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	dryRun := true
	if in.DryRun != nil {
		dryRun = *in.DryRun
	}

	query := gateway.RecordQuery{MaxRecords: d.limits.ScanRecordLimit}
	source, err := d.gw.ListRecords(ctx, in.SourceBaseID, in.SourceTableID, query)
	if err != nil {
		return nil, err
	}
	target, err := d.gw.ListRecords(ctx, in.TargetBaseID, in.TargetTableID, query)
	if err != nil {
		return nil, err
	}

	plan := analysis.ComputeSyncPlan(source, target, in.KeyField)

	out := syncTablesOutput{
		SyncSummary: syncSummary{
			SourceRecords:   plan.SourceCount,
			TargetRecords:   plan.TargetCount,
			RecordsToCreate: len(plan.ToCreate),
			RecordsToUpdate: len(plan.ToUpdate),
			RecordsToDelete: len(plan.ToDelete),
		},
		KeyField: in.KeyField,
		DryRun:   dryRun,
		Changes: syncChanges{
			Create: []syncCreateChange{},
			Update: []syncUpdateChange{},
			Delete: []syncDeleteChange{},
		},
	}

	for _, rec := range head(plan.ToCreate, syncPreviewChanges) {
		out.Changes.Create = append(out.Changes.Create, syncCreateChange{Key: rec.Fields[in.KeyField], Fields: rec.Fields})
	}
	for _, pair := range headPairs(plan.ToUpdate, syncPreviewChanges) {
		out.Changes.Update = append(out.Changes.Update, syncUpdateChange{Key: pair.KeyValue, Changes: "Field differences detected"})
	}
	for _, rec := range head(plan.ToDelete, syncPreviewChanges) {
		out.Changes.Delete = append(out.Changes.Delete, syncDeleteChange{Key: rec.Fields[in.KeyField], ID: rec.ID})
	}

	if dryRun {
		out.Message = "Dry run completed - no changes made. Set dry_run=false to execute sync."
	} else {
		out.Message = "Sync execution is not implemented for safety - use dry_run=true to preview changes."
	}
	return out, nil
}

func head(records []gateway.Record, n int) []gateway.Record {
	if len(records) > n {
		return records[:n]
	}
	return records
}

func headPairs(pairs []analysis.UpdatePair, n int) []analysis.UpdatePair {
	if len(pairs) > n {
		return pairs[:n]
	}
	return pairs
}
