package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("triage_board",
		mcp.WithPromptDescription("Walk the kanban board and move stale or misfiled cards"),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the triage should achieve, e.g. 'close out finished work'"),
			mcp.RequiredArgument(),
		),
	), s.handleTriagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("plan_month",
		mcp.WithPromptDescription("Spread undated or overdue records across a calendar month"),
		mcp.WithArgument("month",
			mcp.ArgumentDescription("Month to plan, as YYYY-MM"),
			mcp.RequiredArgument(),
		),
	), s.handlePlanMonthPrompt)
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: text},
			},
		},
	}
}

func (s *Server) handleTriagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	goal := req.Params.Arguments["goal"]
	table := s.svc.Schema().Name
	return userPrompt(fmt.Sprintf("Triage the %s board", table), fmt.Sprintf(`Triage the "%s" board. Goal: %s. Follow these steps:

1. Call get_schema to learn the select field that defines the columns
2. Call render_kanban and read every column, including Uncategorized
3. For each card that is in the wrong column, call move_card with the target column's option ID
4. Use update_record for any other field that needs fixing; never delete records without asking

Finish with a short summary of what moved and why.`, table, goal)), nil
}

func (s *Server) handlePlanMonthPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	month := req.Params.Arguments["month"]
	table := s.svc.Schema().Name
	return userPrompt(fmt.Sprintf("Plan %s in %s", month, table), fmt.Sprintf(`Plan %s for the "%s" table. Follow these steps:

1. Call render_calendar with month "%s" to see which days are already busy
2. Call list_records and pick records with no date or a date before the month
3. Call move_to_day for each one, spreading them over free weekdays
4. Call render_calendar again and check no day has more than three records

Report the final schedule as a list of days.`, month, table, month)), nil
}
