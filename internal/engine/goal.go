package engine

import (
	"context"
	"errors"
	"math"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalCalculator computes progress toward a personal numeric goal. For
// auto-tracked weight goals it first syncs the current value from the
// client's latest weigh-in and persists the update.
type GoalCalculator struct {
	goals    repository.GoalRepository
	weighIns repository.WeighInRepository
}

// NewGoalCalculator creates a goal calculator.
func NewGoalCalculator(goals repository.GoalRepository, weighIns repository.WeighInRepository) *GoalCalculator {
	return &GoalCalculator{goals: goals, weighIns: weighIns}
}

// EvaluateGoal computes the goal's progress as of today. The goal record is
// mutated in place when an auto-sync overwrites CurrentValue.
func (c *GoalCalculator) EvaluateGoal(ctx context.Context, goal *domain.GoalRecord, clientID primitive.ObjectID, today *domain.ChallengeWindow) (domain.GoalProgress, error) {
	// Weigh-ins are the only automated measurement feed, so only weight
	// goals can auto-sync; waist and body-fat values stay coach-entered.
	if goal.AutoTrack && goal.GoalType == domain.GoalWeight {
		c.syncCurrentValue(ctx, goal, clientID)
	}

	change := goal.CurrentValue - goal.StartingValue

	pct := 0
	if goal.TargetValue != 0 {
		pct = int(math.Round(math.Abs(change) / math.Abs(goal.TargetValue) * 100))
	}
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	progress := domain.GoalProgress{
		GoalID:     goal.ID,
		Change:     change,
		Percentage: pct,
		Achieved:   pct >= 100,
		Remaining:  math.Abs(goal.TargetValue - change),
	}

	if goal.Deadline != nil && today != nil {
		days := daysBetween(today.Today, *goal.Deadline)
		progress.DaysToDeadline = &days
	}
	return progress, nil
}

// syncCurrentValue pulls the latest weigh-in and persists it as the goal's
// current value. Sync failures are logged and skipped; the goal still
// evaluates from its stored value.
func (c *GoalCalculator) syncCurrentValue(ctx context.Context, goal *domain.GoalRecord, clientID primitive.ObjectID) {
	latest, err := c.weighIns.LatestByClientID(ctx, clientID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logrus.Warnf("goal auto-sync read failed for client %s: %v", clientID.Hex(), err)
		}
		return
	}
	if latest == nil || latest.Weight == goal.CurrentValue {
		return
	}
	if err := c.goals.UpdateCurrentValue(ctx, goal.ID, latest.Weight); err != nil {
		logrus.Warnf("goal auto-sync persist failed for goal %s: %v", goal.ID.Hex(), err)
		return
	}
	goal.CurrentValue = latest.Weight
}
