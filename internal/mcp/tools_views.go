package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"dataviews/internal/domain"
	"dataviews/internal/view"
)

func (s *Server) registerViewTools() {
	// ── schema & tabs ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_schema",
		mcp.WithDescription("Get the table schema: fields, types and select options"),
	), s.handleGetSchema)

	s.mcp.AddTool(mcp.NewTool("list_views",
		mcp.WithDescription("List the views this table supports and the active one"),
	), s.handleListViews)

	s.mcp.AddTool(mcp.NewTool("set_active_view",
		mcp.WithDescription("Switch the UI to another view: grid, form, kanban, gallery or calendar"),
		mcp.WithString("view", mcp.Description("View name"), mcp.Required()),
	), s.handleSetActiveView)

	// ── grid ───────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_grid",
		mcp.WithDescription("Render the grid with the current sort and filter"),
	), s.handleRenderGrid)

	s.mcp.AddTool(mcp.NewTool("set_grid",
		mcp.WithDescription(`Change the grid's stored sort and filter and return the re-rendered grid.
Only the arguments given are changed. An empty sortField or filterField turns sorting or filtering off.
Selecting a filterField resets the operator to the field type's default.`),
		mcp.WithString("sortField", mcp.Description("Field ID to sort by")),
		mcp.WithString("direction", mcp.Description("Sort direction: asc or desc")),
		mcp.WithString("filterField", mcp.Description("Field ID to filter on")),
		mcp.WithString("operator", mcp.Description("Filter operator: contains, equals, greater, less, greaterEqual, lessEqual, before or after")),
		mcp.WithString("value", mcp.Description("Filter value")),
		mcp.WithBoolean("clear", mcp.Description("Reset sort and filter before applying the other arguments")),
	), s.handleSetGrid)

	// ── kanban ─────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_kanban",
		mcp.WithDescription("Render the kanban board grouped by the first select field"),
	), s.handleRenderKanban)

	s.mcp.AddTool(mcp.NewTool("move_card",
		mcp.WithDescription("Move a record to another kanban column"),
		mcp.WithString("recordId", mcp.Description("Record ID"), mcp.Required()),
		mcp.WithString("columnId", mcp.Description("Option ID of the target column, or __uncategorized__"), mcp.Required()),
	), s.handleMoveCard)

	// ── calendar ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_calendar",
		mcp.WithDescription("Render a calendar month. Only days with records are returned."),
		mcp.WithString("month", mcp.Description("Month as YYYY-MM (optional, defaults to the displayed month)")),
	), s.handleRenderCalendar)

	s.mcp.AddTool(mcp.NewTool("move_to_day",
		mcp.WithDescription("Set a record's date field to a day"),
		mcp.WithString("recordId", mcp.Description("Record ID"), mcp.Required()),
		mcp.WithString("day", mcp.Description("Day as YYYY-MM-DD"), mcp.Required()),
	), s.handleMoveToDay)

	// ── gallery & form ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_gallery",
		mcp.WithDescription("Render the records as gallery cards"),
	), s.handleRenderGallery)

	s.mcp.AddTool(mcp.NewTool("describe_form",
		mcp.WithDescription("Describe the add-record form: one control per field"),
	), s.handleDescribeForm)
}

func (s *Server) handleGetSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Schema())
}

func (s *Server) handleListViews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"views":  s.svc.AvailableViews(),
		"active": s.svc.ActiveView(),
	})
}

func (s *Server) handleSetActiveView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req.GetArguments(), "view")
	if err != nil {
		return nil, err
	}
	if err := s.svc.SetActiveView(ctx, domain.ViewKind(name)); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Active view is now %s", name)), nil
}

func (s *Server) handleRenderGrid(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Grid(s.svc.GridState()))
}

func (s *Server) handleSetGrid(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	schema := s.svc.Schema()

	g := s.svc.GridState()
	if reset, _ := args["clear"].(bool); reset {
		g = view.GridState{}
		g.ClearFilter()
	}
	if id, ok := args["sortField"].(string); ok {
		if _, known := schema.Field(id); id != "" && !known {
			return nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrBadInput, id)
		}
		g.SetSortField(id)
	}
	if dir, ok := args["direction"].(string); ok {
		switch view.SortDirection(dir) {
		case view.SortAsc, view.SortDesc:
			g.Sort.Direction = view.SortDirection(dir)
		default:
			return nil, fmt.Errorf("%w: direction must be asc or desc", domain.ErrBadInput)
		}
	}
	if id, ok := args["filterField"].(string); ok {
		if _, known := schema.Field(id); id != "" && !known {
			return nil, fmt.Errorf("%w: unknown filter field %q", domain.ErrBadInput, id)
		}
		g.SetFilterField(schema, id)
	}
	if op, _ := args["operator"].(string); op != "" {
		g.Filter.Operator = view.Operator(op)
	}
	if v, ok := args["value"].(string); ok {
		g.Filter.Value = v
	}
	if err := g.Filter.Resolve(schema); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadInput, err)
	}

	s.svc.SetGridState(g)
	return jsonResult(s.svc.Grid(g))
}

func (s *Server) handleRenderKanban(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	board, err := s.svc.Kanban()
	if err != nil {
		return nil, err
	}
	return jsonResult(board)
}

func (s *Server) handleMoveCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "recordId")
	if err != nil {
		return nil, err
	}
	col, err := requireString(args, "columnId")
	if err != nil {
		return nil, err
	}
	r, err := s.svc.MoveCard(ctx, id, col)
	if err != nil {
		return nil, err
	}
	return jsonResult(r)
}

// calendarDay is the compact calendar cell agents get back.
type calendarDay struct {
	Day     string   `json:"day"`
	Records []string `json:"records"`
	Titles  []string `json:"titles"`
}

func (s *Server) handleRenderCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		m   *view.Month
		err error
	)
	if raw, _ := req.GetArguments()["month"].(string); raw != "" {
		t, perr := time.Parse("2006-01", raw)
		if perr != nil {
			return nil, fmt.Errorf("invalid month %q: want YYYY-MM", raw)
		}
		m, err = s.svc.CalendarAt(t.Year(), t.Month())
	} else {
		m, err = s.svc.Calendar()
	}
	if err != nil {
		return nil, err
	}

	days := []calendarDay{}
	for _, c := range m.Cells {
		if len(c.Entries) == 0 {
			continue
		}
		d := calendarDay{Day: c.Day}
		for _, e := range c.Entries {
			d.Records = append(d.Records, e.Record.ID)
			d.Titles = append(d.Titles, e.Title)
		}
		days = append(days, d)
	}
	return jsonResult(map[string]any{
		"field": m.Field.ID,
		"year":  m.Year,
		"month": int(m.Month),
		"days":  days,
	})
}

func (s *Server) handleMoveToDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "recordId")
	if err != nil {
		return nil, err
	}
	day, err := requireString(args, "day")
	if err != nil {
		return nil, err
	}
	r, err := s.svc.MoveToDay(ctx, id, day)
	if err != nil {
		return nil, err
	}
	return jsonResult(r)
}

func (s *Server) handleRenderGallery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Gallery())
}

func (s *Server) handleDescribeForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.NewForm(nil).Controls(s.svc.Locale()))
}
