package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"dataviews/internal/etl"
	_ "dataviews/internal/etl/sources" // register all sources via init()
)

func (s *Server) registerImportTools() {
	s.mcp.AddTool(mcp.NewTool("list_import_sources",
		mcp.WithDescription("List the file and URL sources import_records can read, with their options"),
	), s.handleListImportSources)

	s.mcp.AddTool(mcp.NewTool("import_records",
		mcp.WithDescription(`Import rows from a CSV/TSV/JSON file or a JSON URL as new records.
Columns are matched to fields by ID or name; values are converted to each field's type
(numbers, yes/no checkboxes, dates as YYYY-MM-DD, select options by name or ID).
Use dryRun first to preview the mapped records.`),
		mcp.WithString("location", mcp.Description("File path or http(s) URL"), mcp.Required()),
		mcp.WithString("delimiter", mcp.Description("CSV delimiter (optional)")),
		mcp.WithString("dataPath", mcp.Description("Dot-separated path to the rows inside a JSON document (optional)")),
		mcp.WithString("dedupeKey", mcp.Description("Field ID; rows repeating an earlier value are skipped (optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to import (optional)")),
		mcp.WithBoolean("dryRun", mcp.Description("Preview without creating records")),
	), s.handleImportRecords)
}

func (s *Server) handleListImportSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(etl.ListSources())
}

func (s *Server) handleImportRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	location, err := requireString(args, "location")
	if err != nil {
		return nil, err
	}
	delimiter, _ := args["delimiter"].(string)
	dataPath, _ := args["dataPath"].(string)

	job, err := etl.JobFor(location, etl.SourceConfig{"delimiter": delimiter, "dataPath": dataPath})
	if err != nil {
		return nil, err
	}
	job.DedupeKey, _ = args["dedupeKey"].(string)
	job.Limit = intArg(args, "limit", 0)
	job.DryRun, _ = args["dryRun"].(bool)

	res, err := s.importer.Run(ctx, s.svc.Schema(), s.svc, job)
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}
