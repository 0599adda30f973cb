package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/autoresolve/adapter/cli"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/commands"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/queries"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/services"
	"github.com/felixgeelhaar/mcp-go"
)

type runInput struct {
	At string `json:"at,omitempty"`
}

type candidatesInput struct {
	At string `json:"at,omitempty"`
}

type outcomesInput struct {
	BookingID string `json:"booking_id,omitempty"`
	Type      string `json:"type,omitempty"`
	Since     string `json:"since,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type blackoutInput struct {
	Date    string `json:"date" jsonschema:"required"`
	Country string `json:"country" jsonschema:"required"`
}

type resolutionView struct {
	BookingID     string     `json:"booking_id"`
	Kind          string     `json:"kind"`
	OriginalStart time.Time  `json:"original_start"`
	NewStart      *time.Time `json:"new_start,omitempty"`
	AbortCause    string     `json:"abort_cause,omitempty"`
	Trigger       string     `json:"trigger,omitempty"`
	Message       string     `json:"message,omitempty"`
	Errors        []string   `json:"errors,omitempty"`
}

type runOutput struct {
	ReferenceTime time.Time        `json:"reference_time"`
	Selected      int              `json:"selected"`
	Errors        int              `json:"errors"`
	Counts        map[string]int   `json:"counts"`
	DurationMs    int64            `json:"duration_ms"`
	Resolutions   []resolutionView `json:"resolutions"`
}

func registerResolutionTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("resolution.run").
		Description("Run one resolution pass: reschedule or cancel unfilled bookings inside their window. Optional 'at' replays the pass at a reference time.").
		Handler(runHandler(app))

	srv.Tool("resolution.candidates").
		Description("List the bookings the next resolution pass would act on, without changing anything").
		Handler(candidatesHandler(app))

	srv.Tool("resolution.outcomes").
		Description("List recorded resolution outcomes, newest first. Filter by booking_id, type (rbu or cbu), since").
		Handler(outcomesHandler(app))

	srv.Tool("holiday.blackout").
		Description("Check whether a date (YYYY-MM-DD) is a reschedule blackout for a country").
		Handler(blackoutHandler(app))

	return nil
}

func runHandler(app *cli.App) func(context.Context, runInput) (*runOutput, error) {
	return func(ctx context.Context, input runInput) (*runOutput, error) {
		if app == nil || app.RunBatchHandler == nil {
			return nil, errors.New("resolution requires database connection")
		}
		ref, err := parseOptionalTime(input.At)
		if err != nil {
			return nil, err
		}

		result, err := app.RunBatchHandler.Handle(ctx, commands.RunBatchCommand{ReferenceTime: ref})
		if err != nil {
			return nil, err
		}

		out := &runOutput{
			ReferenceTime: result.ReferenceTime,
			Selected:      result.Selected,
			Errors:        result.Errors,
			Counts:        make(map[string]int, len(result.Counts)),
			DurationMs:    result.Duration.Milliseconds(),
			Resolutions:   make([]resolutionView, 0, len(result.Resolutions)),
		}
		for kind, n := range result.Counts {
			out.Counts[string(kind)] = n
		}
		for _, res := range result.Resolutions {
			out.Resolutions = append(out.Resolutions, resolutionView{
				BookingID:     res.BookingID.String(),
				Kind:          string(res.Kind),
				OriginalStart: res.OriginalStart,
				NewStart:      res.NewStart,
				AbortCause:    string(res.AbortCause),
				Trigger:       string(res.Trigger),
				Message:       res.Message,
				Errors:        res.Errors,
			})
		}
		return out, nil
	}
}

func candidatesHandler(app *cli.App) func(context.Context, candidatesInput) ([]queries.CandidateDTO, error) {
	return func(ctx context.Context, input candidatesInput) ([]queries.CandidateDTO, error) {
		if app == nil || app.ListCandidatesHandler == nil {
			return nil, errors.New("candidate listing requires database connection")
		}
		ref, err := parseOptionalTime(input.At)
		if err != nil {
			return nil, err
		}
		return app.ListCandidatesHandler.Handle(ctx, queries.ListCandidatesQuery{ReferenceTime: ref})
	}
}

func outcomesHandler(app *cli.App) func(context.Context, outcomesInput) ([]queries.OutcomeDTO, error) {
	return func(ctx context.Context, input outcomesInput) ([]queries.OutcomeDTO, error) {
		if app == nil || app.ListOutcomesHandler == nil {
			return nil, errors.New("outcome listing requires database connection")
		}
		bookingID, err := parseOptionalUUID(input.BookingID)
		if err != nil {
			return nil, err
		}
		query := queries.ListOutcomesQuery{
			BookingID: bookingID,
			Type:      input.Type,
			Limit:     input.Limit,
		}
		if input.Since != "" {
			since, err := parseOptionalTime(input.Since)
			if err != nil {
				return nil, err
			}
			query.Since = &since
		}
		return app.ListOutcomesHandler.Handle(ctx, query)
	}
}

func blackoutHandler(app *cli.App) func(context.Context, blackoutInput) (*services.BlackoutVerdict, error) {
	return func(ctx context.Context, input blackoutInput) (*services.BlackoutVerdict, error) {
		if app == nil || app.CheckBlackoutHandler == nil {
			return nil, errors.New("blackout check requires holiday sources")
		}
		date, err := parseDate(input.Date)
		if err != nil {
			return nil, err
		}
		country, err := normalizeCountry(input.Country)
		if err != nil {
			return nil, err
		}
		verdict, err := app.CheckBlackoutHandler.Handle(ctx, queries.CheckBlackoutQuery{Date: date, Country: country})
		if err != nil {
			return nil, err
		}
		return &verdict, nil
	}
}
