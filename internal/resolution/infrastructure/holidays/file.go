package holidays

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/security"
	"gopkg.in/yaml.v3"
)

// fileEntry is one holiday line in a holiday file.
//
//	holidays:
//	  - country: US
//	    date: 2025-11-28
//	    name: Day after Thanksgiving
//	    observed: true
type fileEntry struct {
	Country  string `yaml:"country"`
	Date     string `yaml:"date"`
	Name     string `yaml:"name"`
	Observed *bool  `yaml:"observed"`
}

type fileDocument struct {
	Holidays []fileEntry `yaml:"holidays"`
}

// FileSource serves holidays loaded from a YAML file.
type FileSource struct {
	byCountry map[string]map[time.Time][]domain.Holiday
}

// LoadFile reads and parses a holiday file.
func LoadFile(path string) (*FileSource, error) {
	data, err := security.ReadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holiday file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile parses holiday file contents.
func ParseFile(data []byte) (*FileSource, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse holiday file: %w", err)
	}

	src := &FileSource{byCountry: make(map[string]map[time.Time][]domain.Holiday)}
	for i, e := range doc.Holidays {
		country := domain.NormalizeCountry(e.Country)
		if country == "" {
			return nil, fmt.Errorf("holiday %d: country is required", i)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("holiday %d: name is required", i)
		}
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(e.Date))
		if err != nil {
			return nil, fmt.Errorf("holiday %d: invalid date %q: %w", i, e.Date, err)
		}
		observed := true
		if e.Observed != nil {
			observed = *e.Observed
		}

		days, ok := src.byCountry[country]
		if !ok {
			days = make(map[time.Time][]domain.Holiday)
			src.byCountry[country] = days
		}
		days[date] = append(days[date], domain.Holiday{
			Date:     date,
			Name:     strings.TrimSpace(e.Name),
			Country:  country,
			Observed: observed,
		})
	}
	return src, nil
}

// ObservedHolidays returns the file entries for date.
func (s *FileSource) ObservedHolidays(_ context.Context, date time.Time, country string) ([]domain.Holiday, error) {
	country = domain.NormalizeCountry(country)
	days, ok := s.byCountry[country]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, country)
	}
	return days[domain.CivilDate(date)], nil
}
