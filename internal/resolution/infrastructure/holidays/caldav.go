package holidays

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
)

// CalDAVConfig configures a CalDAV holiday source.
type CalDAVConfig struct {
	URL      string
	Username string
	Password string
	// Calendars maps country codes to calendar paths. Countries without an
	// entry are looked up in the principal's calendar home by name.
	Calendars  map[string]string
	HTTPClient *http.Client
}

// CalDAVSource reads holidays from per-country CalDAV calendars.
type CalDAVSource struct {
	client *caldav.Client
	logger *slog.Logger

	mu         sync.Mutex
	calendars  map[string]string
	discovered bool
}

// NewCalDAVSource creates a CalDAV source.
func NewCalDAVSource(cfg CalDAVConfig, logger *slog.Logger) (*CalDAVSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("caldav url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	var hc webdav.HTTPClient = httpClient
	if cfg.Username != "" {
		hc = webdav.HTTPClientWithBasicAuth(httpClient, cfg.Username, cfg.Password)
	}
	client, err := caldav.NewClient(hc, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	calendars := make(map[string]string, len(cfg.Calendars))
	for country, path := range cfg.Calendars {
		calendars[domain.NormalizeCountry(country)] = path
	}

	return &CalDAVSource{
		client:    client,
		logger:    logger,
		calendars: calendars,
	}, nil
}

// ObservedHolidays queries the country's calendar for events on date.
func (s *CalDAVSource) ObservedHolidays(ctx context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	country = domain.NormalizeCountry(country)
	path, err := s.calendarPath(ctx, country)
	if err != nil {
		return nil, err
	}

	day := domain.CivilDate(date)
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name:  "VEVENT",
				Props: []string{"SUMMARY", "DTSTART", "UID"},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: day,
				End:   day.AddDate(0, 0, 1),
			}},
		},
	}

	objects, err := s.client.QueryCalendar(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("caldav query %s: %w", path, err)
	}

	var out []domain.Holiday
	for _, obj := range objects {
		out = append(out, holidaysFromObject(obj, country, day)...)
	}
	return out, nil
}

func (s *CalDAVSource) calendarPath(ctx context.Context, country string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path, ok := s.calendars[country]; ok {
		return path, nil
	}
	if !s.discovered {
		if err := s.discover(ctx); err != nil {
			return "", err
		}
		s.discovered = true
		if path, ok := s.calendars[country]; ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCountry, country)
}

func (s *CalDAVSource) discover(ctx context.Context) error {
	principal, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("failed to find principal: %w", err)
	}
	homeSet, err := s.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return fmt.Errorf("failed to find calendar home set: %w", err)
	}
	cals, err := s.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range cals {
		country := calendarCountry(cal.Name)
		if country == "" {
			continue
		}
		if _, exists := s.calendars[country]; !exists {
			s.calendars[country] = cal.Path
			s.logger.Debug("discovered holiday calendar", "country", country, "path", cal.Path)
		}
	}
	return nil
}

// calendarCountry extracts the country code from names like "US Holidays" or
// "Holidays (CA)".
func calendarCountry(name string) string {
	if !strings.Contains(strings.ToLower(name), "holiday") {
		return ""
	}
	for _, field := range strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '(' || r == ')' || r == '-' || r == '_'
	}) {
		if len(field) == 2 && strings.ToUpper(field) == field {
			return field
		}
	}
	return ""
}

func holidaysFromObject(obj caldav.CalendarObject, country string, day time.Time) []domain.Holiday {
	if obj.Data == nil {
		return nil
	}
	var out []domain.Holiday
	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		summary := ""
		if props := child.Props[ical.PropSummary]; len(props) > 0 {
			summary = props[0].Value
		}
		if summary == "" {
			continue
		}
		event := ical.Event{Component: child}
		start, err := event.DateTimeStart(time.UTC)
		if err != nil || !domain.CivilDate(start).Equal(day) {
			continue
		}
		out = append(out, domain.Holiday{
			Date:     day,
			Name:     summary,
			Country:  country,
			Observed: true,
		})
	}
	return out
}
