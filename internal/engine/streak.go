package engine

import (
	"context"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Streak walks backward day-by-day from the window's today over the rule's
// compliant dates and returns the consecutive-day count, capped at the
// window length. If today itself is not yet compliant the walk starts at
// yesterday, so an unfinished day never breaks a running streak.
func (e *Engine) Streak(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow, kind domain.RequirementKind) (int, error) {
	rule, err := e.rule(kind)
	if err != nil {
		return 0, err
	}
	dates, err := rule.CompliantDates(ctx, clientID, w)
	if err != nil {
		return 0, err
	}
	compliant := make(map[string]bool, len(dates))
	for _, d := range dates {
		compliant[d.Format("2006-01-02")] = true
	}

	day := dateOnly(w.Today)
	if !compliant[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for streak < domain.ChallengeLengthDays && compliant[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}
