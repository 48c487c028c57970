package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"dataviews/internal/view"
)

func (s *Server) registerRecordTools() {
	// ── list_records ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List records newest first, optionally filtered and sorted like the grid"),
		mcp.WithString("filterField", mcp.Description("Field ID to filter on (optional)")),
		mcp.WithString("operator", mcp.Description("Filter operator: contains, equals, greater, less, greaterEqual, lessEqual, before, after")),
		mcp.WithString("value", mcp.Description("Filter value")),
		mcp.WithString("sortField", mcp.Description("Field ID to sort by (optional)")),
		mcp.WithString("direction", mcp.Description("Sort direction: asc or desc")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records (optional)")),
		mcp.WithNumber("offset", mcp.Description("Records to skip (optional)")),
	), s.handleListRecords)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Get one record by ID"),
		mcp.WithString("recordId", mcp.Description("Record ID"), mcp.Required()),
	), s.handleGetRecord)

	s.mcp.AddTool(mcp.NewTool("create_record",
		mcp.WithDescription("Create a record. Values are keyed by field ID; select fields store the option name."),
		mcp.WithString("fields", mcp.Description("JSON object {fieldId: value, ...}"), mcp.Required()),
	), s.handleCreateRecord)

	s.mcp.AddTool(mcp.NewTool("update_record",
		mcp.WithDescription("Merge field values into a record. Fields not given are left unchanged."),
		mcp.WithString("recordId", mcp.Description("Record ID"), mcp.Required()),
		mcp.WithString("fields", mcp.Description("JSON object {fieldId: value, ...}"), mcp.Required()),
	), s.handleUpdateRecord)

	s.mcp.AddTool(mcp.NewTool("toggle_checkbox",
		mcp.WithDescription("Flip a checkbox field on a record"),
		mcp.WithString("recordId", mcp.Description("Record ID"), mcp.Required()),
		mcp.WithString("fieldId", mcp.Description("Checkbox field ID"), mcp.Required()),
	), s.handleToggleCheckbox)

	s.mcp.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a record"),
		mcp.WithString("recordId", mcp.Description("Record ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteRecord)

	s.mcp.AddTool(mcp.NewTool("refresh_records",
		mcp.WithDescription("Reload the record list from the backend"),
	), s.handleRefreshRecords)
}

func (s *Server) handleListRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	schema := s.svc.Schema()

	var filter view.Filter
	if id, _ := args["filterField"].(string); id != "" {
		var g view.GridState
		g.SetFilterField(schema, id)
		filter = g.Filter
		if op, _ := args["operator"].(string); op != "" {
			filter.Operator = view.Operator(op)
		}
		filter.Value, _ = args["value"].(string)
		if err := filter.Resolve(schema); err != nil {
			return nil, err
		}
	}
	var sort view.Sort
	if id, _ := args["sortField"].(string); id != "" {
		sort.FieldID = id
		sort.Direction = view.SortAsc
		if dir, _ := args["direction"].(string); dir == string(view.SortDesc) {
			sort.Direction = view.SortDesc
		}
	}

	records := s.svc.Records()
	total := len(records)
	records = view.SortRecords(schema, view.FilterRecords(schema, records, filter), sort, s.svc.Locale())
	matched := len(records)

	offset := max(intArg(args, "offset", 0), 0)
	if offset > len(records) {
		offset = len(records)
	}
	records = records[offset:]
	if limit := intArg(args, "limit", 0); limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return jsonResult(map[string]any{
		"records": records,
		"matched": matched,
		"total":   total,
	})
}

func (s *Server) handleGetRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "recordId")
	if err != nil {
		return nil, err
	}
	r, ok := s.svc.Record(id)
	if !ok {
		return nil, fmt.Errorf("record %s not found", id)
	}
	return jsonResult(r)
}

func (s *Server) handleCreateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fields, err := fieldsArg(req.GetArguments(), "fields")
	if err != nil {
		return nil, err
	}
	r, err := s.svc.CreateRecord(ctx, fields)
	if err != nil {
		return nil, err
	}
	return jsonResult(r)
}

func (s *Server) handleUpdateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "recordId")
	if err != nil {
		return nil, err
	}
	fields, err := fieldsArg(args, "fields")
	if err != nil {
		return nil, err
	}
	r, err := s.svc.UpdateRecord(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	return jsonResult(r)
}

func (s *Server) handleToggleCheckbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "recordId")
	if err != nil {
		return nil, err
	}
	fieldID, err := requireString(args, "fieldId")
	if err != nil {
		return nil, err
	}
	r, err := s.svc.ToggleCheckbox(ctx, id, fieldID)
	if err != nil {
		return nil, err
	}
	return jsonResult(r)
}

func (s *Server) handleDeleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "recordId")
	if err != nil {
		return nil, err
	}
	s.svc.DeleteRecord(ctx, id)
	if _, still := s.svc.Record(id); still {
		return nil, fmt.Errorf("record %s was not deleted; the backend rejected the request", id)
	}
	return textResult(fmt.Sprintf("Record %s deleted", id)), nil
}

func (s *Server) handleRefreshRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.Refresh(ctx); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Loaded %d records", len(s.svc.Records()))), nil
}
