package tools

import (
	"context"

	"github.com/tablegate/tablegate/internal/gateway"
	"github.com/tablegate/tablegate/pkg/toolerr"
)

type listTablesInput struct {
	BaseID string `json:"base_id" validate:"required"`
}

type tableSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FieldCount  int    `json:"field_count"`
	ViewCount   int    `json:"view_count"`
}

type listTablesOutput struct {
	BaseID     string         `json:"base_id"`
	TableCount int            `json:"table_count"`
	Tables     []tableSummary `json:"tables"`
}

// handleListTables projects the base schema into a per-table summary.
func (d *Dispatcher) handleListTables(ctx context.Context, args map[string]any) (any, error) {
	var in listTablesInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	schema, err := d.gw.FetchSchema(ctx, in.BaseID)
	if err != nil {
		return nil, err
	}

	out := listTablesOutput{
		BaseID:     in.BaseID,
		TableCount: len(schema.Tables),
		Tables:     make([]tableSummary, 0, len(schema.Tables)),
	}
	for _, t := range schema.Tables {
		out.Tables = append(out.Tables, tableSummary{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			FieldCount:  len(t.Fields),
			ViewCount:   len(t.Views),
		})
	}
	return out, nil
}

type getFieldInfoInput struct {
	BaseID  string `json:"base_id" validate:"required"`
	TableID string `json:"table_id" validate:"required"`
}

type fieldInfo struct {
	Name        string         `json:"name"`
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	IsPrimary   bool           `json:"is_primary"`
	Options     map[string]any `json:"options"`

	// Type-specific extras
	ChoiceCount *int     `json:"choice_count,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Formula     *string  `json:"formula,omitempty"`
	LinkedTable *string  `json:"linked_table,omitempty"`
	LookupField *string  `json:"lookup_field,omitempty"`
}

type getFieldInfoOutput struct {
	TableName   string         `json:"table_name"`
	TableID     string         `json:"table_id"`
	TotalFields int            `json:"total_fields"`
	FieldTypes  map[string]int `json:"field_types"`
	Fields      []fieldInfo    `json:"fields"`
}

// handleGetFieldInfo resolves the table by ID or name (first match wins) and
// enumerates its fields with type-specific extras.
func (d *Dispatcher) handleGetFieldInfo(ctx context.Context, args map[string]any) (any, error) {
	var in getFieldInfoInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	schema, err := d.gw.FetchSchema(ctx, in.BaseID)
	if err != nil {
		return nil, err
	}
	table, ok := schema.FindTable(in.TableID)
	if !ok {
		return nil, &toolerr.NotFoundError{Kind: "table", Name: in.TableID}
	}

	out := getFieldInfoOutput{
		TableName:   table.Name,
		TableID:     table.ID,
		TotalFields: len(table.Fields),
		FieldTypes:  map[string]int{},
		Fields:      make([]fieldInfo, 0, len(table.Fields)),
	}

	for _, f := range table.Fields {
		info := fieldInfo{
			Name:        f.Name,
			ID:          f.ID,
			Type:        f.Type,
			Description: f.Description,
			IsPrimary:   f.ID != "" && f.ID == table.PrimaryFieldID,
			Options:     f.Options,
		}
		if info.Options == nil {
			info.Options = map[string]any{}
		}

		switch f.Type {
		case "singleSelect", "multipleSelect":
			choices := selectChoices(f)
			count := len(choices)
			info.ChoiceCount = &count
			info.Choices = choices
		case "formula":
			formulaText, _ := f.Options["formula"].(string)
			info.Formula = &formulaText
		case "lookup":
			linked, _ := f.Options["relationshipTableId"].(string)
			lookup, _ := f.Options["fieldIdInLinkedTable"].(string)
			info.LinkedTable = &linked
			info.LookupField = &lookup
		}

		out.FieldTypes[f.Type]++
		out.Fields = append(out.Fields, info)
	}
	return out, nil
}

// selectChoices pulls the choice names out of a select field's options.
func selectChoices(f gateway.Field) []string {
	raw, _ := f.Options["choices"].([]any)
	names := make([]string, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			if name, ok := m["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}
