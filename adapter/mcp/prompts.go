package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for operating the resolver.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("review_pass").
		Description("Review what the next resolution pass will do before running it").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Resolution pass review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Review the next automatic resolution pass.

1. List the current candidates with resolution.candidates.
2. For each candidate's start date, check holiday.blackout for its region's country
   on the following weekdays so you know which dates are closed.
3. Read autoresolve://outcomes/recent and flag bookings that were already
   rescheduled once, since they are close to being cancelled.

Summarize how many bookings will likely be moved and how many cancelled. Only run
resolution.run if I confirm.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("explain_outcome").
		Description("Explain why a booking was rescheduled or cancelled").
		Argument("booking_id", "Booking ID to explain", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			bookingID := args["booking_id"]
			if bookingID == "" {
				return nil, fmt.Errorf("booking_id is required")
			}
			return &mcp.PromptResult{
				Description: "Outcome explanation",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Call resolution.outcomes with booking_id %s and explain, in plain
language for a support agent, what happened to this booking on each pass and why.
Mention the reason code of each entry and whether the action succeeded.`, bookingID),
						},
					},
				},
			}, nil
		})

	return nil
}
