package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers read-only views over the resolver state.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("autoresolve://outcomes/recent").
		Name("Recent Outcomes").
		Description("The 50 most recent resolution outcomes").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListOutcomesHandler == nil {
				return nil, fmt.Errorf("outcome listing requires database connection")
			}
			entries, err := app.ListOutcomesHandler.Handle(ctx, queries.ListOutcomesQuery{Limit: 50})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, entries)
		})

	srv.Resource("autoresolve://candidates").
		Name("Current Candidates").
		Description("Unfilled bookings inside their auto-accept window right now").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListCandidatesHandler == nil {
				return nil, fmt.Errorf("candidate listing requires database connection")
			}
			candidates, err := app.ListCandidatesHandler.Handle(ctx, queries.ListCandidatesQuery{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, candidates)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
