package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"dataviews/internal/domain"
	"dataviews/internal/etl"
	"dataviews/internal/service"
)

// Server is the MCP server for a data views table.
// It exposes tools, resources and prompts so AI agents can read and edit
// records and inspect every view the UI renders.
type Server struct {
	mcp      *server.MCPServer
	svc      *service.DataViewsService
	importer *etl.Engine
	logger   *zap.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(svc *service.DataViewsService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:      svc,
		importer: etl.NewEngine(logger),
		logger:   logger.Named("mcp"),
	}

	s.mcp = server.NewMCPServer(
		"dataviews-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerRecordTools()
	s.registerViewTools()
	s.registerImportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting stdio server", zap.String("table", s.svc.Schema().ID))
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// requireString returns a non-empty string argument.
func requireString(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// fieldsArg reads a fields argument given either as a JSON object string or
// as an object.
func fieldsArg(args map[string]any, name string) (domain.Fields, error) {
	switch v := args[name].(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", name)
	case string:
		var f domain.Fields
		if err := parseJSON(v, &f); err != nil {
			return nil, fmt.Errorf("parse %s JSON: %w", name, err)
		}
		if f == nil {
			f = domain.Fields{}
		}
		return f, nil
	case map[string]any:
		return domain.Fields(v), nil
	default:
		return nil, fmt.Errorf("%s must be a JSON object", name)
	}
}

func boolPtr(v bool) *bool { return &v }
