package engine

import (
	"context"
	"testing"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStreakCountsConsecutiveDays(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	seedWorkouts(stores, clientID, day("2025-01-18"), 3) // Jan 18, 19, 20

	streak, err := eng.Streak(context.Background(), clientID, w, domain.RequirementWorkout)
	require.NoError(t, err)
	assert.Equal(t, 3, streak)
}

func TestStreakUnfinishedTodayDoesNotBreak(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	seedWorkouts(stores, clientID, day("2025-01-17"), 3) // Jan 17, 18, 19; nothing today

	streak, err := eng.Streak(context.Background(), clientID, w, domain.RequirementWorkout)
	require.NoError(t, err)
	assert.Equal(t, 3, streak)
}

func TestStreakGapResets(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	seedWorkouts(stores, clientID, day("2025-01-15"), 3) // Jan 15-17
	seedWorkouts(stores, clientID, day("2025-01-19"), 2) // Jan 19-20, gap on the 18th

	streak, err := eng.Streak(context.Background(), clientID, w, domain.RequirementWorkout)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestStreakEmptyIsZero(t *testing.T) {
	eng, _ := newTestEngine()
	w := window56("2025-01-01", "2025-01-20")

	streak, err := eng.Streak(context.Background(), primitive.NewObjectID(), w, domain.RequirementWorkout)
	require.NoError(t, err)
	assert.Equal(t, 0, streak)
}

// The meal streak bar (>=50% completion) is stricter than the tracked-day
// count feeding the 45-day requirement. A low-completion day keeps the count
// moving but breaks the streak.
func TestMealStreakStricterThanCount(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	seedMeals(stores, clientID, day("2025-01-18"), 1, 40) // tracked, below streak bar
	seedMeals(stores, clientID, day("2025-01-19"), 2, 80) // Jan 19, 20

	progress := eng.EvaluateChallenge(context.Background(), clientID, w)
	status := progress.Status(domain.RequirementMeal)
	require.NotNil(t, status)
	assert.Equal(t, 3, status.Current, "all three days count toward the requirement")

	streak, err := eng.Streak(context.Background(), clientID, w, domain.RequirementMeal)
	require.NoError(t, err)
	assert.Equal(t, 2, streak, "the low-completion day breaks the streak")
}

func TestStreakUnknownKind(t *testing.T) {
	eng, _ := newTestEngine()
	w := window56("2025-01-01", "2025-01-20")

	_, err := eng.Streak(context.Background(), primitive.NewObjectID(), w, domain.RequirementKind("sleep"))
	assert.ErrorIs(t, err, ErrUnknownRequirement)
}
