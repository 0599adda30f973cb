package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextTime_SortsLexically(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	earlier := time.Date(2026, 11, 4, 9, 59, 59, 999000000, ny)
	later := time.Date(2026, 11, 4, 10, 0, 0, 0, ny)

	assert.Less(t, FormatTextTime(earlier), FormatTextTime(later))
	assert.Len(t, FormatTextTime(earlier), len(FormatTextTime(later)))
}

func TestTextTime_RoundTripsToMicrosecond(t *testing.T) {
	in := time.Date(2026, 11, 26, 15, 4, 5, 123456000, time.UTC)
	out, err := ParseTextTime(FormatTextTime(in))
	require.NoError(t, err)
	assert.True(t, in.Equal(out))

	legacy, err := ParseTextTime("2026-11-26T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, 15, legacy.Hour())
}

func TestNullTextTime(t *testing.T) {
	assert.False(t, NullTextTime(nil).Valid)

	parsed, err := ParseNullTextTime(sql.NullString{})
	require.NoError(t, err)
	assert.Nil(t, parsed)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	parsed, err = ParseNullTextTime(NullTextTime(&now))
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, now.Equal(*parsed))
}
