package engine

import (
	"context"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// workoutRule counts distinct dates with a completed workout.
type workoutRule struct {
	workouts repository.WorkoutLogRepository
}

// NewWorkoutRule creates the workout requirement rule.
func NewWorkoutRule(workouts repository.WorkoutLogRepository) Rule {
	return &workoutRule{workouts: workouts}
}

func (r *workoutRule) Kind() domain.RequirementKind { return domain.RequirementWorkout }

// completedByDate maps each in-window date to its most recent completed entry.
func (r *workoutRule) completedByDate(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (map[time.Time]domain.WorkoutCompletion, error) {
	entries, err := r.workouts.FindInRange(ctx, clientID, w.EffectiveStart, w.EffectiveEnd)
	if err != nil {
		return nil, &ReadError{Kind: r.Kind(), Err: err}
	}
	byDate := make(map[time.Time]domain.WorkoutCompletion)
	for _, e := range entries {
		if !e.Completed {
			continue
		}
		d := dateOnly(e.Date)
		if prev, ok := byDate[d]; !ok || e.CreatedAt.After(prev.CreatedAt) {
			byDate[d] = e
		}
	}
	return byDate, nil
}

func (r *workoutRule) Evaluate(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.RequirementStatus, error) {
	byDate, err := r.completedByDate(ctx, clientID, w)
	if err != nil {
		return failedStatus(r.Kind()), err
	}
	var lastDate *time.Time
	var lastRef *primitive.ObjectID
	for d, e := range byDate {
		if lastDate == nil || d.After(*lastDate) {
			day, id := d, e.ID
			lastDate, lastRef = &day, &id
		}
	}
	return buildStatus(r.Kind(), len(byDate), lastDate, lastRef), nil
}

// LocateInsertionSlot skips any date that already has a workout row, even a
// not-completed one, so an insert can never collide with existing data.
func (r *workoutRule) LocateInsertionSlot(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (time.Time, error) {
	entries, err := r.workouts.FindInRange(ctx, clientID, w.EffectiveStart, w.EffectiveEnd)
	if err != nil {
		return time.Time{}, &ReadError{Kind: r.Kind(), Err: err}
	}
	hasRow := make(map[time.Time]bool, len(entries))
	for _, e := range entries {
		hasRow[dateOnly(e.Date)] = true
	}
	return locateSlot(r.Kind(), w, false, func(d time.Time) bool {
		return hasRow[d]
	})
}

func (r *workoutRule) LocateRemovalTarget(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.EntryRef, error) {
	byDate, err := r.completedByDate(ctx, clientID, w)
	if err != nil {
		return domain.EntryRef{}, err
	}
	var latest *domain.WorkoutCompletion
	for d := range byDate {
		e := byDate[d]
		if latest == nil || dateOnly(e.Date).After(dateOnly(latest.Date)) {
			latest = &e
		}
	}
	if latest == nil {
		return domain.EntryRef{}, ErrNothingToRemove
	}
	return domain.EntryRef{Date: dateOnly(latest.Date), IDs: []primitive.ObjectID{latest.ID}}, nil
}

func (r *workoutRule) InsertAt(ctx context.Context, clientID primitive.ObjectID, date time.Time, adjustedBy primitive.ObjectID) error {
	_, err := r.workouts.Insert(ctx, &domain.WorkoutCompletion{
		ClientID:   clientID,
		Date:       dateOnly(date),
		Completed:  true,
		Source:     domain.SourceManual,
		Note:       "coach adjustment",
		AdjustedBy: &adjustedBy,
	})
	return err
}

func (r *workoutRule) Remove(ctx context.Context, ref domain.EntryRef) error {
	for _, id := range ref.IDs {
		if err := r.workouts.DeleteByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *workoutRule) CompliantDates(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) ([]time.Time, error) {
	byDate, err := r.completedByDate(ctx, clientID, w)
	if err != nil {
		return nil, err
	}
	set := make(map[time.Time]bool, len(byDate))
	for d := range byDate {
		set[d] = true
	}
	return sortedDates(set), nil
}
