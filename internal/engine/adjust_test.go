package engine

import (
	"context"
	"testing"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddRequirementEntryWorkout(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	coachID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	status, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementWorkout, coachID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Current)

	require.Len(t, stores.workouts.entries, 1)
	entry := stores.workouts.entries[0]
	assert.Equal(t, day("2025-01-20"), entry.Date, "free slot scan starts at today")
	assert.True(t, entry.Completed)
	assert.Equal(t, domain.SourceManual, entry.Source)
	require.NotNil(t, entry.AdjustedBy)
	assert.Equal(t, coachID, *entry.AdjustedBy)
}

func TestAddRequirementEntrySkipsOccupiedDays(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	// Today and yesterday already have completed workouts.
	seedWorkouts(stores, clientID, day("2025-01-19"), 2)

	_, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementWorkout, primitive.NewObjectID())
	require.NoError(t, err)

	var dates []time.Time
	for _, e := range stores.workouts.entries {
		if e.Source == domain.SourceManual {
			dates = append(dates, e.Date)
		}
	}
	require.Len(t, dates, 1)
	assert.Equal(t, day("2025-01-18"), dates[0])
}

// A not-completed workout log does not count toward the requirement but its
// row still holds the (clientId, date) slot in the store. The locator must
// step past it instead of colliding with the unique index.
func TestAddWorkoutEntrySkipsNotCompletedRows(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-10")

	stores.workouts.entries = []domain.WorkoutCompletion{{
		ID:        primitive.NewObjectID(),
		ClientID:  clientID,
		Date:      day("2025-01-10"),
		Completed: false,
		Source:    domain.SourceClient,
	}}

	status, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementWorkout, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, 1, status.Current)

	require.Len(t, stores.workouts.entries, 2)
	manual := stores.workouts.entries[1]
	assert.Equal(t, domain.SourceManual, manual.Source)
	assert.Equal(t, day("2025-01-09"), manual.Date, "the not-completed row occupies today")
}

// Same boundary for calls: a scheduled or missed call occupies its date even
// though only completed calls count.
func TestAddCallEntrySkipsNonCompletedCalls(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	planID := primitive.NewObjectID()
	stores.calls.plans = []domain.CallPlan{{ID: planID, Name: "weekly check-in"}}
	w := window56("2025-01-01", "2025-01-10")

	stores.calls.entries = []domain.CompletedCall{{
		ID:            primitive.NewObjectID(),
		ClientID:      clientID,
		PlanID:        planID,
		ScheduledDate: day("2025-01-10"),
		Status:        domain.CallScheduled,
		Source:        domain.SourceClient,
	}}

	status, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementCall, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, 1, status.Current)

	require.Len(t, stores.calls.entries, 2)
	manual := stores.calls.entries[1]
	assert.Equal(t, domain.SourceManual, manual.Source)
	assert.Equal(t, day("2025-01-09"), manual.ScheduledDate)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	seedMeals(stores, clientID, w.EffectiveStart, 3, 80)

	added, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementMeal, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, 4, added.Current)

	removed, err := eng.RemoveRequirementEntry(context.Background(), clientID, w, domain.RequirementMeal)
	require.NoError(t, err)
	assert.Equal(t, 3, removed.Current)
}

func TestRemoveRequirementEntryTakesMostRecent(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	seedWorkouts(stores, clientID, day("2025-01-05"), 3) // Jan 5, 6, 7

	_, err := eng.RemoveRequirementEntry(context.Background(), clientID, w, domain.RequirementWorkout)
	require.NoError(t, err)

	require.Len(t, stores.workouts.entries, 2)
	for _, e := range stores.workouts.entries {
		assert.NotEqual(t, day("2025-01-07"), dateOnly(e.Date))
	}
}

func TestRemoveRequirementEntryNothingToRemove(t *testing.T) {
	eng, _ := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	_, err := eng.RemoveRequirementEntry(context.Background(), clientID, w, domain.RequirementWorkout)
	assert.ErrorIs(t, err, ErrNothingToRemove)
}

func TestAddRequirementEntryUnknownKind(t *testing.T) {
	eng, _ := newTestEngine()
	w := window56("2025-01-01", "2025-01-20")

	_, err := eng.AddRequirementEntry(context.Background(), primitive.NewObjectID(), w, domain.RequirementKind("steps"), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUnknownRequirement)
}

func TestAddRequirementEntryNoSlotWhenAllDaysUsed(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-05")

	// Every day from start through today already has a meal row, including an
	// untracked one; the meal locator must not reuse any of them.
	seedMeals(stores, clientID, day("2025-01-01"), 4, 80)
	seedMeals(stores, clientID, day("2025-01-05"), 1, 0)

	_, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementMeal, primitive.NewObjectID())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSlotAvailable)
	assert.Contains(t, err.Error(), "already have entries")
}

func TestAddRequirementEntryCeiling(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-02-25")

	seedWorkouts(stores, clientID, w.EffectiveStart, domain.ChallengeLengthDays)

	_, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementWorkout, primitive.NewObjectID())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSlotAvailable)
	assert.Contains(t, err.Error(), "ceiling")
}

func TestAddRequirementEntrySlotAlreadyTakenAfterRetry(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	// Every insert collides, as if a concurrent adjustment keeps winning.
	stores.workouts.insertErr = repository.ErrDuplicate

	_, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementWorkout, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrSlotAlreadyTaken)
}

func TestAddWeightEntryTargetsFridayAndSynthesizesWeight(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20") // Monday

	stores.weighIns.entries = []domain.WeighIn{{
		ID:       primitive.NewObjectID(),
		ClientID: clientID,
		Date:     day("2025-01-10"), // Friday
		Weight:   88.4,
	}}

	status, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementWeight, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, 2, status.Current)

	var manual *domain.WeighIn
	for i := range stores.weighIns.entries {
		if stores.weighIns.entries[i].Source == domain.SourceManual {
			manual = &stores.weighIns.entries[i]
		}
	}
	require.NotNil(t, manual)
	assert.Equal(t, day("2025-01-17"), manual.Date, "most recent free Friday on or before today")
	assert.InDelta(t, 88.5, manual.Weight, 0.001)
}

func TestAddWeightEntryFallsBackToProfileWeight(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	weight := 92.0
	stores.users.users[clientID] = &domain.User{ID: clientID, Role: domain.RoleClient, CurrentWeight: &weight}
	w := window56("2025-01-01", "2025-01-20")

	_, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementWeight, primitive.NewObjectID())
	require.NoError(t, err)

	require.Len(t, stores.weighIns.entries, 1)
	assert.InDelta(t, 92.1, stores.weighIns.entries[0].Weight, 0.001)
}

func TestAddPhotoEntryFillsOnlyMissingType(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	// Jan 17 already has a front photo; the set is incomplete so it is the
	// insertion target, and only the side must be written.
	stores.photos.entries = []domain.ProgressPhoto{{
		ID:       primitive.NewObjectID(),
		ClientID: clientID,
		Date:     day("2025-01-17"),
		Type:     domain.PhotoFront,
	}}

	status, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementPhoto, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, 1, status.Current)

	require.Len(t, stores.photos.entries, 2)
	var sides int
	for _, e := range stores.photos.entries {
		if e.Type == domain.PhotoSide {
			sides++
			assert.Equal(t, domain.SourceManual, e.Source)
			assert.Contains(t, e.ObjectKey, "manual-adjustments/")
		}
	}
	assert.Equal(t, 1, sides)
}

func TestAddPhotoEntryRollsBackHalfWrittenPair(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-01-20")

	stores.photos.failOnType = domain.PhotoSide

	_, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementPhoto, primitive.NewObjectID())
	require.Error(t, err)
	assert.Empty(t, stores.photos.entries, "front row must be rolled back when side fails")
}

func TestRemovePhotoEntryDeletesCompletePair(t *testing.T) {
	eng, stores := newTestEngine()
	clientID := primitive.NewObjectID()
	w := window56("2025-01-01", "2025-02-25")

	fridays := fridaysIn(w)
	seedPhotoSets(stores, clientID, fridays[:2])

	status, err := eng.RemoveRequirementEntry(context.Background(), clientID, w, domain.RequirementPhoto)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Current)

	require.Len(t, stores.photos.entries, 2)
	for _, e := range stores.photos.entries {
		assert.Equal(t, fridays[0], dateOnly(e.Date), "only the most recent set is removed")
	}
}

func TestAddCallEntryResolvesPlanFallback(t *testing.T) {
	t.Run("uses any configured plan", func(t *testing.T) {
		eng, stores := newTestEngine()
		clientID := primitive.NewObjectID()
		planID := primitive.NewObjectID()
		stores.calls.plans = []domain.CallPlan{{ID: planID, Name: "weekly check-in"}}
		w := window56("2025-01-01", "2025-01-20")

		_, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementCall, primitive.NewObjectID())
		require.NoError(t, err)
		require.Len(t, stores.calls.entries, 1)
		assert.Equal(t, planID, stores.calls.entries[0].PlanID)
		assert.Equal(t, domain.CallCompleted, stores.calls.entries[0].Status)
	})

	t.Run("prefers the client's own latest plan", func(t *testing.T) {
		eng, stores := newTestEngine()
		clientID := primitive.NewObjectID()
		ownPlan := primitive.NewObjectID()
		otherPlan := primitive.NewObjectID()
		stores.calls.plans = []domain.CallPlan{{ID: otherPlan}}
		seedCompletedCalls(stores, clientID, ownPlan, []time.Time{day("2025-01-06")})
		w := window56("2025-01-01", "2025-01-20")

		_, err := eng.AddRequirementEntry(context.Background(), clientID, w, domain.RequirementCall, primitive.NewObjectID())
		require.NoError(t, err)
		require.Len(t, stores.calls.entries, 2)
		assert.Equal(t, ownPlan, stores.calls.entries[1].PlanID)
	})

	t.Run("no plan anywhere", func(t *testing.T) {
		eng, _ := newTestEngine()
		w := window56("2025-01-01", "2025-01-20")

		_, err := eng.AddRequirementEntry(context.Background(), primitive.NewObjectID(), w, domain.RequirementCall, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNoCallPlanConfigured)
	})
}
