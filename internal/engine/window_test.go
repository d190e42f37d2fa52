package engine

import (
	"testing"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWindow(t *testing.T) {
	base := &domain.ChallengeAssignment{
		StartDate: day("2025-01-01"),
		EndDate:   day("2025-02-25"), // day 56
	}

	t.Run("mid challenge", func(t *testing.T) {
		w, err := ResolveWindow(base, day("2025-01-08"))
		require.NoError(t, err)
		assert.Equal(t, day("2025-01-01"), w.EffectiveStart)
		assert.Equal(t, day("2025-02-25"), w.EffectiveEnd)
		assert.Equal(t, 8, w.CurrentDay)
		assert.Equal(t, 48, w.DaysRemaining)
	})

	t.Run("first day", func(t *testing.T) {
		w, err := ResolveWindow(base, day("2025-01-01"))
		require.NoError(t, err)
		assert.Equal(t, 1, w.CurrentDay)
		assert.Equal(t, 55, w.DaysRemaining)
	})

	t.Run("before start clamps to day one", func(t *testing.T) {
		w, err := ResolveWindow(base, day("2024-12-25"))
		require.NoError(t, err)
		assert.Equal(t, 1, w.CurrentDay)
	})

	t.Run("after end clamps", func(t *testing.T) {
		w, err := ResolveWindow(base, day("2025-06-01"))
		require.NoError(t, err)
		assert.Equal(t, domain.ChallengeLengthDays, w.CurrentDay)
		assert.Equal(t, 0, w.DaysRemaining)
	})

	t.Run("pause days extend the end but not the start", func(t *testing.T) {
		paused := *base
		paused.TotalPausedDays = 7
		w, err := ResolveWindow(&paused, day("2025-02-25"))
		require.NoError(t, err)
		assert.Equal(t, day("2025-01-01"), w.EffectiveStart)
		assert.Equal(t, day("2025-03-04"), w.EffectiveEnd)
		assert.Equal(t, 7, w.DaysRemaining)
	})

	t.Run("invalid range", func(t *testing.T) {
		bad := &domain.ChallengeAssignment{
			StartDate: day("2025-01-01"),
			EndDate:   day("2025-01-01"),
		}
		_, err := ResolveWindow(bad, day("2025-01-01"))
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		w, err := ResolveWindow(base, day("2025-01-08").Add(23*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 8, w.CurrentDay)
	})
}

func TestWindowContains(t *testing.T) {
	w := window56("2025-01-01", "2025-01-10")
	assert.True(t, w.Contains(day("2025-01-01")))
	assert.True(t, w.Contains(day("2025-02-25")))
	assert.False(t, w.Contains(day("2024-12-31")))
	assert.False(t, w.Contains(day("2025-02-26")))
}
