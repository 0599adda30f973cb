package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/felixgeelhaar/autoresolve/internal/shared/application"
	"github.com/felixgeelhaar/autoresolve/internal/shared/infrastructure/security"
	"gopkg.in/yaml.v3"
)

// RegionSeed is the YAML shape of one region's configuration.
//
//	regions:
//	  - id: nyc
//	    country: US
//	    timezone: America/New_York
//	    auto_enabled: true
//	    max_attempts: 2
//	    windows: {cleaning: 1440, handyman: 720}
//	    day_policy: {Wednesday: Friday}
type RegionSeed struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Country     string            `yaml:"country"`
	Timezone    string            `yaml:"timezone"`
	AutoEnabled bool              `yaml:"auto_enabled"`
	MaxAttempts *int              `yaml:"max_attempts"`
	Windows     map[string]int    `yaml:"windows"`
	DayPolicy   map[string]string `yaml:"day_policy"`
}

// Seed is a region configuration file.
type Seed struct {
	Regions []RegionSeed `yaml:"regions"`
}

// LoadSeed reads a region seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := security.ReadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses and validates seed contents.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, r := range seed.Regions {
		if r.ID == "" {
			return nil, fmt.Errorf("region %d: id is required", i)
		}
		if r.Country == "" {
			return nil, fmt.Errorf("region %s: country is required", r.ID)
		}
		if _, err := domain.ParseDayPolicy(r.ID, r.DayPolicy); err != nil {
			return nil, fmt.Errorf("region %s: %w", r.ID, err)
		}
		for service, minutes := range r.Windows {
			w := domain.WindowConfig{RegionID: r.ID, ServiceID: service, Minutes: minutes}
			if err := w.Validate(); err != nil {
				return nil, fmt.Errorf("region %s service %s: %w", r.ID, service, err)
			}
		}
	}
	return &seed, nil
}

// Apply writes every region, window and day policy in one transaction.
func (s *Seed) Apply(ctx context.Context, uow application.UnitOfWork, regions domain.RegionConfigWriter) error {
	return application.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		for _, r := range s.Regions {
			region := &domain.Region{
				ID:          r.ID,
				Name:        r.Name,
				CountryCode: r.Country,
				Timezone:    r.Timezone,
				AutoEnabled: r.AutoEnabled,
				MaxAttempts: r.MaxAttempts,
			}
			if region.Name == "" {
				region.Name = r.ID
			}
			if err := regions.SaveRegion(txCtx, region); err != nil {
				return fmt.Errorf("save region %s: %w", r.ID, err)
			}
			for service, minutes := range r.Windows {
				w := domain.WindowConfig{RegionID: r.ID, ServiceID: service, Minutes: minutes}
				if err := regions.SaveWindow(txCtx, w); err != nil {
					return fmt.Errorf("save window %s/%s: %w", r.ID, service, err)
				}
			}
			policy, err := domain.ParseDayPolicy(r.ID, r.DayPolicy)
			if err != nil {
				return err
			}
			if err := regions.SaveDayPolicy(txCtx, policy); err != nil {
				return fmt.Errorf("save day policy %s: %w", r.ID, err)
			}
		}
		return nil
	})
}
