package persistence_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
regions:
  - id: nyc
    name: New York
    country: us
    timezone: America/New_York
    auto_enabled: true
    max_attempts: 3
    windows:
      cleaning: 1440
      handyman: 720
    day_policy:
      Wednesday: Friday
  - id: tor
    country: CA
    auto_enabled: false
`

func TestSeed_Apply(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "regions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	seed, err := persistence.LoadSeed(path)
	require.NoError(t, err)
	require.NoError(t, seed.Apply(ctx, repos.UnitOfWork, repos.Regions))

	region, err := repos.Regions.Region(ctx, "nyc")
	require.NoError(t, err)
	assert.Equal(t, "New York", region.Name)
	assert.Equal(t, "US", region.CountryCode)
	assert.True(t, region.AutoEnabled)
	require.NotNil(t, region.MaxAttempts)
	assert.Equal(t, 3, *region.MaxAttempts)

	tor, err := repos.Regions.Region(ctx, "tor")
	require.NoError(t, err)
	assert.Equal(t, "tor", tor.Name)
	assert.Equal(t, "UTC", tor.Timezone)

	minutes, found, err := repos.Regions.WindowMinutes(ctx, "nyc", "handyman")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 720, minutes)

	policy, err := repos.Regions.DayPolicy(ctx, "nyc")
	require.NoError(t, err)
	target, ok := policy.Target(time.Wednesday)
	assert.True(t, ok)
	assert.Equal(t, time.Friday, target)

	enabled, err := repos.Regions.AutoEnabledRegionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"nyc"}, enabled)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing id":      "regions:\n  - {country: US}\n",
		"missing country": "regions:\n  - {id: nyc}\n",
		"bad weekday":     "regions:\n  - {id: nyc, country: US, day_policy: {Funday: Friday}}\n",
		"bad window":      "regions:\n  - {id: nyc, country: US, windows: {cleaning: 0}}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := persistence.ParseSeed([]byte(doc))
			assert.Error(t, err)
		})
	}
}
