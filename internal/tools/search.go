package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tablegate/tablegate/pkg/toolerr"
)

const defaultSearchMaxRecords = 50

type searchRecordsInput struct {
	BaseID     string   `json:"base_id" validate:"required"`
	TableID    string   `json:"table_id" validate:"required"`
	Query      string   `json:"query" validate:"required"`
	Fields     []string `json:"fields"`
	MaxRecords int      `json:"max_records"`
}

// handleSearchRecords builds a filter formula exclusively through the
// formula-safety layer — query text is never concatenated into a formula by
// this handler — and forwards it as a filtered record listing.
func (d *Dispatcher) handleSearchRecords(ctx context.Context, args map[string]any) (any, error) {
	var in searchRecordsInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if d.sanitizer == nil {
		return nil, &toolerr.SanitizerUnavailableError{}
	}

	filter, err := d.sanitizer.BuildSafeSearchFormula(in.Query, in.Fields)
	if err != nil {
		return nil, err
	}

	maxRecords := in.MaxRecords
	if maxRecords <= 0 {
		maxRecords = defaultSearchMaxRecords
	}

	params := url.Values{}
	params.Set("filter_by_formula", filter)
	params.Set("max_records", strconv.Itoa(maxRecords))

	return d.gw.Get(ctx, fmt.Sprintf("/bases/%s/tables/%s/records", in.BaseID, in.TableID), params)
}
