package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/tablegate/tablegate/pkg/toolerr"
)

// batchUpdateConcurrency bounds the parallel per-record PATCH fan-out. Each
// update is independent, so bounded parallelism keeps the
// collect-all-outcomes contract intact.
const batchUpdateConcurrency = 4

type getRecordsInput struct {
	BaseID          string `json:"base_id" validate:"required"`
	TableID         string `json:"table_id" validate:"required"`
	MaxRecords      int    `json:"max_records"`
	View            string `json:"view"`
	FilterByFormula string `json:"filter_by_formula"`
}

// handleGetRecords forwards a record listing to the gateway, passing any
// user-supplied filter through the formula-safety layer first. The gateway's
// response is returned verbatim.
func (d *Dispatcher) handleGetRecords(ctx context.Context, args map[string]any) (any, error) {
	var in getRecordsInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	params := url.Values{}
	if in.MaxRecords > 0 {
		params.Set("max_records", strconv.Itoa(in.MaxRecords))
	}
	if in.View != "" {
		params.Set("view", in.View)
	}
	if in.FilterByFormula != "" {
		if d.sanitizer == nil {
			return nil, &toolerr.SanitizerUnavailableError{}
		}
		safe, err := d.sanitizer.ValidateFilterFormula(in.FilterByFormula)
		if err != nil {
			return nil, err
		}
		params.Set("filter_by_formula", safe)
	}

	return d.gw.Get(ctx, fmt.Sprintf("/bases/%s/tables/%s/records", in.BaseID, in.TableID), params)
}

type createRecordInput struct {
	BaseID  string         `json:"base_id" validate:"required"`
	TableID string         `json:"table_id" validate:"required"`
	Fields  map[string]any `json:"fields" validate:"required"`
}

func (d *Dispatcher) handleCreateRecord(ctx context.Context, args map[string]any) (any, error) {
	var in createRecordInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return d.gw.Post(ctx, fmt.Sprintf("/bases/%s/tables/%s/records", in.BaseID, in.TableID), in.Fields)
}

type updateRecordInput struct {
	BaseID   string         `json:"base_id" validate:"required"`
	TableID  string         `json:"table_id" validate:"required"`
	RecordID string         `json:"record_id" validate:"required"`
	Fields   map[string]any `json:"fields" validate:"required"`
}

func (d *Dispatcher) handleUpdateRecord(ctx context.Context, args map[string]any) (any, error) {
	var in updateRecordInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return d.gw.Patch(ctx, fmt.Sprintf("/bases/%s/tables/%s/records/%s", in.BaseID, in.TableID, in.RecordID), in.Fields)
}

type deleteRecordInput struct {
	BaseID   string `json:"base_id" validate:"required"`
	TableID  string `json:"table_id" validate:"required"`
	RecordID string `json:"record_id" validate:"required"`
}

func (d *Dispatcher) handleDeleteRecord(ctx context.Context, args map[string]any) (any, error) {
	var in deleteRecordInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return d.gw.Delete(ctx, fmt.Sprintf("/bases/%s/tables/%s/records/%s", in.BaseID, in.TableID, in.RecordID))
}

type batchCreateInput struct {
	BaseID  string           `json:"base_id" validate:"required"`
	TableID string           `json:"table_id" validate:"required"`
	Records []map[string]any `json:"records" validate:"required"`
}

type batchCreateOutput struct {
	Message        string `json:"message"`
	CreatedRecords any    `json:"created_records"`
	BaseID         string `json:"base_id"`
	TableID        string `json:"table_id"`
}

// handleBatchCreateRecords validates the batch window before any gateway
// call: an oversized or empty batch issues zero requests.
func (d *Dispatcher) handleBatchCreateRecords(ctx context.Context, args map[string]any) (any, error) {
	var in batchCreateInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.Records) == 0 || len(in.Records) > d.limits.BatchSizeLimit {
		return nil, &toolerr.BatchSizeError{Count: len(in.Records), Max: d.limits.BatchSizeLimit}
	}

	result, err := d.gw.Post(
		ctx,
		fmt.Sprintf("/bases/%s/tables/%s/records/batch", in.BaseID, in.TableID),
		map[string]any{"records": in.Records},
	)
	if err != nil {
		return nil, err
	}

	created, _ := result["records"].([]any)
	return batchCreateOutput{
		Message:        fmt.Sprintf("Successfully created %d records", len(created)),
		CreatedRecords: created,
		BaseID:         in.BaseID,
		TableID:        in.TableID,
	}, nil
}

type batchUpdateRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type batchUpdateInput struct {
	BaseID  string              `json:"base_id" validate:"required"`
	TableID string              `json:"table_id" validate:"required"`
	Records []batchUpdateRecord `json:"records" validate:"required"`
}

type batchUpdateError struct {
	RecordID string `json:"record_id"`
	Error    string `json:"error"`
}

type batchUpdateOutput struct {
	Message        string             `json:"message"`
	UpdatedRecords []map[string]any   `json:"updated_records"`
	Errors         []batchUpdateError `json:"errors"`
	BaseID         string             `json:"base_id"`
	TableID        string             `json:"table_id"`
}

// handleBatchUpdateRecords issues one PATCH per record — the gateway has no
// batch update endpoint — and collects successes and failures independently.
// Partial failure is a valid outcome, never a call-level error.
func (d *Dispatcher) handleBatchUpdateRecords(ctx context.Context, args map[string]any) (any, error) {
	var in batchUpdateInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.Records) == 0 || len(in.Records) > d.limits.BatchSizeLimit {
		return nil, &toolerr.BatchSizeError{Count: len(in.Records), Max: d.limits.BatchSizeLimit}
	}
	for i, rec := range in.Records {
		if rec.ID == "" || rec.Fields == nil {
			return nil, &toolerr.ValidationError{Msg: fmt.Sprintf("record %d must have 'id' and 'fields' properties", i)}
		}
	}

	type outcome struct {
		updated map[string]any
		failure *batchUpdateError
	}
	outcomes := make([]outcome, len(in.Records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchUpdateConcurrency)
	for i, rec := range in.Records {
		g.Go(func() error {
			path := fmt.Sprintf("/bases/%s/tables/%s/records/%s", in.BaseID, in.TableID, rec.ID)
			result, err := d.gw.Patch(gctx, path, rec.Fields)
			if err != nil {
				outcomes[i].failure = &batchUpdateError{RecordID: rec.ID, Error: err.Error()}
				return nil // per-record failures stay independent
			}
			outcomes[i].updated = result
			return nil
		})
	}
	_ = g.Wait()

	out := batchUpdateOutput{
		UpdatedRecords: []map[string]any{},
		Errors:         []batchUpdateError{},
		BaseID:         in.BaseID,
		TableID:        in.TableID,
	}
	for _, o := range outcomes {
		if o.failure != nil {
			out.Errors = append(out.Errors, *o.failure)
		} else if o.updated != nil {
			out.UpdatedRecords = append(out.UpdatedRecords, o.updated)
		}
	}
	out.Message = fmt.Sprintf("Batch update completed: %d success, %d errors", len(out.UpdatedRecords), len(out.Errors))
	return out, nil
}
