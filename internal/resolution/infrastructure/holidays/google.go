package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"golang.org/x/oauth2"
)

const defaultGoogleBaseURL = "https://www.googleapis.com/calendar/v3"

// googleCalendarIDs maps country codes to Google's public holiday calendars.
var googleCalendarIDs = map[string]string{
	"US": "en.usa#holiday@group.v.calendar.google.com",
	"CA": "en.canadian#holiday@group.v.calendar.google.com",
	"GB": "en.uk#holiday@group.v.calendar.google.com",
	"IE": "en.irish#holiday@group.v.calendar.google.com",
	"AU": "en.australian#holiday@group.v.calendar.google.com",
	"NZ": "en.new_zealand#holiday@group.v.calendar.google.com",
	"DE": "en.german#holiday@group.v.calendar.google.com",
	"FR": "en.french#holiday@group.v.calendar.google.com",
}

// GoogleSource reads Google's public holiday calendars.
type GoogleSource struct {
	client  *http.Client
	baseURL string
}

// NewGoogleSource creates a Google Calendar source authenticated by tokens.
func NewGoogleSource(tokens oauth2.TokenSource, baseURL string) *GoogleSource {
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &GoogleSource{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   http.DefaultTransport,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewGoogleSourceWithToken creates a source from a static API token.
func NewGoogleSourceWithToken(token, baseURL string) *GoogleSource {
	return NewGoogleSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), baseURL)
}

type googleEventList struct {
	Items []googleEvent `json:"items"`
}

type googleEvent struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Start       struct {
		Date     string `json:"date"`
		DateTime string `json:"dateTime"`
	} `json:"start"`
}

// ObservedHolidays lists the calendar's events on date.
func (s *GoogleSource) ObservedHolidays(ctx context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	country = domain.NormalizeCountry(country)
	calendarID, ok := googleCalendarIDs[country]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, country)
	}

	day := domain.CivilDate(date)
	params := url.Values{}
	params.Set("timeMin", day.Format(time.RFC3339))
	params.Set("timeMax", day.AddDate(0, 0, 1).Format(time.RFC3339))
	params.Set("singleEvents", "true")
	listURL := fmt.Sprintf("%s/calendars/%s/events?%s", s.baseURL, url.PathEscape(calendarID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google calendar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("google calendar error: %s", strings.TrimSpace(string(body)))
	}

	var list googleEventList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode google events: %w", err)
	}

	var out []domain.Holiday
	for _, item := range list.Items {
		// Observances such as Halloween share the calendar with public holidays.
		if strings.HasPrefix(strings.ToLower(item.Description), "observance") {
			continue
		}
		start, ok := parseGoogleStart(item)
		if !ok || !start.Equal(day) {
			continue
		}
		out = append(out, domain.Holiday{
			Date:     day,
			Name:     item.Summary,
			Country:  country,
			Observed: true,
		})
	}
	return out, nil
}

func parseGoogleStart(item googleEvent) (time.Time, bool) {
	if item.Start.Date != "" {
		t, err := time.Parse(time.DateOnly, item.Start.Date)
		return t, err == nil
	}
	if item.Start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return domain.CivilDate(t), true
	}
	return time.Time{}, false
}
