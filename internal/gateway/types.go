package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Field is one typed column definition within a table.
type Field struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
}

// View is a saved view belonging to a table.
type View struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Table describes one table's schema within a base.
type Table struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	PrimaryFieldID string  `json:"primaryFieldId,omitempty"`
	Fields         []Field `json:"fields"`
	Views          []View  `json:"views"`
}

// Schema is a base's full table listing, retrieved fresh per handler
// invocation. Never cached: staleness is traded for simplicity on purpose.
type Schema struct {
	Tables []Table `json:"tables"`
}

// FindTable resolves a table by ID or name, in that order, first match wins.
func (s *Schema) FindTable(idOrName string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].ID == idOrName || s.Tables[i].Name == idOrName {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// Record is one row of field values, identified by an opaque gateway ID.
type Record struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"createdTime,omitempty"`
}

// RecordList is the gateway's record-listing response.
type RecordList struct {
	Records []Record `json:"records"`
}

// RecordQuery bounds a record listing.
type RecordQuery struct {
	MaxRecords      int
	View            string
	FilterByFormula string
}

func (q RecordQuery) values() url.Values {
	v := url.Values{}
	if q.MaxRecords > 0 {
		v.Set("max_records", strconv.Itoa(q.MaxRecords))
	}
	if q.View != "" {
		v.Set("view", q.View)
	}
	if q.FilterByFormula != "" {
		v.Set("filter_by_formula", q.FilterByFormula)
	}
	return v
}

// FetchSchema retrieves the full schema of a base.
func (c *Client) FetchSchema(ctx context.Context, baseID string) (*Schema, error) {
	var s Schema
	if err := c.GetInto(ctx, fmt.Sprintf("/bases/%s/schema", baseID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListRecords retrieves records from a table subject to the query bounds.
func (c *Client) ListRecords(ctx context.Context, baseID, tableID string, q RecordQuery) ([]Record, error) {
	var list RecordList
	path := fmt.Sprintf("/bases/%s/tables/%s/records", baseID, tableID)
	if err := c.GetInto(ctx, path, q.values(), &list); err != nil {
		return nil, err
	}
	return list.Records, nil
}
