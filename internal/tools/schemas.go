package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tablegate/tablegate/internal/registry"
)

// RegisterAll defines the MCP schema for every dispatcher tool and attaches
// handlers that delegate to Dispatch. The schemas describe arguments for
// discovery only; argument validation happens in the handlers.
func RegisterAll(s *server.MCPServer, reg *registry.Registry, d *Dispatcher) {
	stringItems := map[string]any{"type": "string"}
	objectItems := map[string]any{"type": "object"}

	defs := []mcp.Tool{
		mcp.NewTool(
			"list_tables",
			mcp.WithDescription("List all tables in a base with field and view counts"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base to inspect")),
		),
		mcp.NewTool(
			"get_records",
			mcp.WithDescription("Get records from a table with optional view, formula filter, and record cap"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID or name of the table")),
			mcp.WithNumber("max_records", mcp.Description("Maximum number of records to return")),
			mcp.WithString("view", mcp.Description("View ID or name to read from")),
			mcp.WithString("filter_by_formula", mcp.Description("Formula to filter records; validated before forwarding")),
		),
		mcp.NewTool(
			"get_field_info",
			mcp.WithDescription("Get detailed field definitions for a table, including select choices and relations"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID or name of the table")),
		),
		mcp.NewTool(
			"create_record",
			mcp.WithDescription("Create a single record in a table"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table")),
			mcp.WithObject("fields", mcp.Required(), mcp.Description("Field values for the new record, keyed by field name")),
		),
		mcp.NewTool(
			"update_record",
			mcp.WithDescription("Update fields of an existing record"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table")),
			mcp.WithString("record_id", mcp.Required(), mcp.Description("ID of the record to update")),
			mcp.WithObject("fields", mcp.Required(), mcp.Description("Field values to change, keyed by field name")),
		),
		mcp.NewTool(
			"delete_record",
			mcp.WithDescription("Delete a record from a table"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table")),
			mcp.WithString("record_id", mcp.Required(), mcp.Description("ID of the record to delete")),
		),
		mcp.NewTool(
			"batch_create_records",
			mcp.WithDescription("Create up to 10 records in one call"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table")),
			mcp.WithArray("records", mcp.Required(), mcp.Items(objectItems), mcp.Description("Field maps, one per record to create")),
		),
		mcp.NewTool(
			"batch_update_records",
			mcp.WithDescription("Update up to 10 records in one call; failures are reported per record"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table")),
			mcp.WithArray("records", mcp.Required(), mcp.Items(objectItems), mcp.Description("Objects with 'id' and 'fields' properties, one per record to update")),
		),
		mcp.NewTool(
			"analyze_table_data",
			mcp.WithDescription("Analyze a sample of table records: per-field fill rates, value ranges, and data quality insights"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table to analyze")),
			mcp.WithNumber("sample_size", mcp.DefaultNumber(float64(d.limits.RecordSampleLimit)), mcp.Description("Number of records to sample")),
		),
		mcp.NewTool(
			"find_duplicates",
			mcp.WithDescription("Find records sharing the same values in the given fields"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table to check")),
			mcp.WithArray("fields", mcp.Required(), mcp.Items(stringItems), mcp.Description("Field names to compare for duplicate detection")),
			mcp.WithBoolean("ignore_empty", mcp.DefaultBool(true), mcp.Description("Skip records with empty values in the compared fields")),
		),
		mcp.NewTool(
			"search_records",
			mcp.WithDescription("Search for a text value across fields using a safely constructed formula"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table to search")),
			mcp.WithString("query", mcp.Required(), mcp.Description("Text to search for")),
			mcp.WithArray("fields", mcp.Items(stringItems), mcp.Description("Field names to search in; all fields when omitted")),
			mcp.WithNumber("max_records", mcp.DefaultNumber(defaultSearchMaxRecords), mcp.Description("Maximum number of records to return")),
		),
		mcp.NewTool(
			"create_metadata_table",
			mcp.WithDescription("Analyze every table in a base and write one metadata record per table"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base to document")),
			mcp.WithString("table_name", mcp.DefaultString(defaultMetadataTableName), mcp.Description("Name of the metadata table to create or reuse")),
		),
		mcp.NewTool(
			"export_table_csv",
			mcp.WithDescription("Export table records as CSV text or a base64-encoded XLSX workbook"),
			mcp.WithString("base_id", mcp.Required(), mcp.Description("ID of the base")),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("ID of the table to export")),
			mcp.WithArray("fields", mcp.Items(stringItems), mcp.Description("Fields to include; inferred from the first record when omitted")),
			mcp.WithString("view", mcp.Description("View ID or name to export from")),
			mcp.WithNumber("max_records", mcp.Description("Maximum number of records to export")),
			mcp.WithString("format", mcp.DefaultString("csv"), mcp.Enum("csv", "xlsx"), mcp.Description("Output format")),
		),
		mcp.NewTool(
			"sync_tables",
			mcp.WithDescription("Compare two tables by a key field and report the create/update/delete plan"),
			mcp.WithString("source_base_id", mcp.Required(), mcp.Description("ID of the source base")),
			mcp.WithString("source_table_id", mcp.Required(), mcp.Description("ID of the source table")),
			mcp.WithString("target_base_id", mcp.Required(), mcp.Description("ID of the target base")),
			mcp.WithString("target_table_id", mcp.Required(), mcp.Description("ID of the target table")),
			mcp.WithString("key_field", mcp.Required(), mcp.Description("Field used to match records between the tables")),
			mcp.WithBoolean("dry_run", mcp.DefaultBool(true), mcp.Description("Preview changes without applying them")),
		),
	}

	for _, tool := range defs {
		s.AddTool(tool, d.mcpHandler(tool.Name))
		reg.Register(tool)
	}
}

// mcpHandler adapts one dispatcher tool to the mcp-go handler signature.
// Dispatch never fails at the transport level, so the error return is
// always nil.
func (d *Dispatcher) mcpHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := d.Dispatch(ctx, name, req.GetArguments())
		if res.IsError {
			return mcp.NewToolResultError(res.Text), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}
