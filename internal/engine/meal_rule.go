package engine

import (
	"context"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mealStreakMinPercentage is the stricter bar a day must clear to count
// toward the meal streak. The 45-day count accepts any tracked day; the two
// predicates intentionally differ and must not be unified without product
// confirmation.
const mealStreakMinPercentage = 50

// mealRule counts distinct tracked meal days.
type mealRule struct {
	meals repository.MealLogRepository
}

// NewMealRule creates the meal-tracking requirement rule.
func NewMealRule(meals repository.MealLogRepository) Rule {
	return &mealRule{meals: meals}
}

func (r *mealRule) Kind() domain.RequirementKind { return domain.RequirementMeal }

func (r *mealRule) fetch(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) ([]domain.MealProgressDay, error) {
	entries, err := r.meals.FindInRange(ctx, clientID, w.EffectiveStart, w.EffectiveEnd)
	if err != nil {
		return nil, &ReadError{Kind: r.Kind(), Err: err}
	}
	return entries, nil
}

func (r *mealRule) Evaluate(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.RequirementStatus, error) {
	entries, err := r.fetch(ctx, clientID, w)
	if err != nil {
		return failedStatus(r.Kind()), err
	}
	tracked := make(map[time.Time]domain.MealProgressDay)
	for _, e := range entries {
		if !e.Tracked() {
			continue
		}
		d := dateOnly(e.Date)
		if prev, ok := tracked[d]; !ok || e.CreatedAt.After(prev.CreatedAt) {
			tracked[d] = e
		}
	}
	var lastDate *time.Time
	var lastRef *primitive.ObjectID
	for d, e := range tracked {
		if lastDate == nil || d.After(*lastDate) {
			day, id := d, e.ID
			lastDate, lastRef = &day, &id
		}
	}
	return buildStatus(r.Kind(), len(tracked), lastDate, lastRef), nil
}

// LocateInsertionSlot skips any date that already has a progress row, even
// an untracked all-zero one, so an insert can never collide with existing
// data.
func (r *mealRule) LocateInsertionSlot(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (time.Time, error) {
	entries, err := r.fetch(ctx, clientID, w)
	if err != nil {
		return time.Time{}, err
	}
	hasRow := make(map[time.Time]bool, len(entries))
	for _, e := range entries {
		hasRow[dateOnly(e.Date)] = true
	}
	return locateSlot(r.Kind(), w, false, func(d time.Time) bool {
		return hasRow[d]
	})
}

func (r *mealRule) LocateRemovalTarget(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.EntryRef, error) {
	entries, err := r.fetch(ctx, clientID, w)
	if err != nil {
		return domain.EntryRef{}, err
	}
	var latest *domain.MealProgressDay
	for i := range entries {
		e := entries[i]
		if !e.Tracked() {
			continue
		}
		if latest == nil || dateOnly(e.Date).After(dateOnly(latest.Date)) {
			latest = &e
		}
	}
	if latest == nil {
		return domain.EntryRef{}, ErrNothingToRemove
	}
	return domain.EntryRef{Date: dateOnly(latest.Date), IDs: []primitive.ObjectID{latest.ID}}, nil
}

func (r *mealRule) InsertAt(ctx context.Context, clientID primitive.ObjectID, date time.Time, adjustedBy primitive.ObjectID) error {
	_, err := r.meals.Insert(ctx, &domain.MealProgressDay{
		ClientID:             clientID,
		Date:                 dateOnly(date),
		CompletionPercentage: 100,
		Source:               domain.SourceManual,
		Note:                 "coach adjustment",
		AdjustedBy:           &adjustedBy,
	})
	return err
}

func (r *mealRule) Remove(ctx context.Context, ref domain.EntryRef) error {
	for _, id := range ref.IDs {
		if err := r.meals.DeleteByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CompliantDates feeds the streak walk and requires >=50% completion,
// deliberately stricter than the counting predicate above.
func (r *mealRule) CompliantDates(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) ([]time.Time, error) {
	entries, err := r.fetch(ctx, clientID, w)
	if err != nil {
		return nil, err
	}
	set := make(map[time.Time]bool)
	for _, e := range entries {
		if e.CompletionPercentage >= mealStreakMinPercentage {
			set[dateOnly(e.Date)] = true
		}
	}
	return sortedDates(set), nil
}
