package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestRealClock_IsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, RealClock{}.Now().Location())
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2024, 3, 1, 23, 59, 0, 0, time.FixedZone("X", -3*3600))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDateStr(d))

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestIsOnOrAfterDay(t *testing.T) {
	ref := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

	assert.True(t, IsOnOrAfterDay("2024-03-10", ref))
	assert.True(t, IsOnOrAfterDay("2024-03-11", ref))
	assert.False(t, IsOnOrAfterDay("2024-03-09", ref))
	assert.False(t, IsOnOrAfterDay("not-a-date", ref))
}
