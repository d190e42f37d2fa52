package engine

import (
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
)

// dateOnly truncates t to midnight UTC. All window and slot arithmetic works
// on these normalized dates so map keys and comparisons stay exact.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole calendar days from a to b (negative if b
// precedes a). Both arguments are normalized before subtracting.
func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)) / (24 * time.Hour))
}

// ResolveWindow derives the authoritative challenge window for an assignment.
// The effective end shifts forward by the accumulated pause days; the start
// never moves. An in-progress pause does not count until resume finalizes it.
func ResolveWindow(a *domain.ChallengeAssignment, today time.Time) (domain.ChallengeWindow, error) {
	start := dateOnly(a.StartDate)
	end := dateOnly(a.EndDate).AddDate(0, 0, a.TotalPausedDays)
	if !end.After(start) {
		return domain.ChallengeWindow{}, ErrInvalidWindow
	}

	t := dateOnly(today)

	currentDay := daysBetween(start, t) + 1
	if currentDay < 1 {
		currentDay = 1
	}
	if currentDay > domain.ChallengeLengthDays {
		currentDay = domain.ChallengeLengthDays
	}

	remaining := daysBetween(t, end)
	if remaining < 0 {
		remaining = 0
	}

	return domain.ChallengeWindow{
		EffectiveStart: start,
		EffectiveEnd:   end,
		CurrentDay:     currentDay,
		DaysRemaining:  remaining,
		Today:          t,
	}, nil
}
