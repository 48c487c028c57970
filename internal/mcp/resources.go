package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	schemaURI      = "dataviews://schema"
	recordsURI     = "dataviews://records"
	recordURIStart = "dataviews://records/"
)

func (s *Server) registerResources() {
	// ── dataviews://schema ─────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		schemaURI,
		"Table Schema",
		mcp.WithMIMEType("application/json"),
	), s.handleSchemaResource)

	// ── dataviews://records ────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		recordsURI,
		"All Records",
		mcp.WithMIMEType("application/json"),
	), s.handleRecordsResource)

	// ── dataviews://records/{recordId} ─────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			recordURIStart+"{recordId}",
			"One Record",
		),
		s.handleRecordResource,
	)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSchemaResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(schemaURI, s.svc.Schema())
}

func (s *Server) handleRecordsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(recordsURI, s.svc.Records())
}

func (s *Server) handleRecordResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, recordURIStart)
	if id == "" || id == uri || strings.Contains(id, "/") {
		return nil, fmt.Errorf("could not extract recordId from URI: %s", uri)
	}
	r, ok := s.svc.Record(id)
	if !ok {
		return nil, fmt.Errorf("record %s not found", id)
	}
	return jsonContents(uri, r)
}
