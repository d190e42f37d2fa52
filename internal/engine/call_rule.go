package engine

import (
	"context"
	"errors"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// callRule counts completed coaching calls.
type callRule struct {
	calls repository.CallRepository
}

// NewCallRule creates the coaching-call requirement rule.
func NewCallRule(calls repository.CallRepository) Rule {
	return &callRule{calls: calls}
}

func (r *callRule) Kind() domain.RequirementKind { return domain.RequirementCall }

func (r *callRule) completedByDate(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (map[time.Time]domain.CompletedCall, error) {
	entries, err := r.calls.FindInRange(ctx, clientID, w.EffectiveStart, w.EffectiveEnd)
	if err != nil {
		return nil, &ReadError{Kind: r.Kind(), Err: err}
	}
	byDate := make(map[time.Time]domain.CompletedCall)
	for _, e := range entries {
		if e.Status != domain.CallCompleted {
			continue
		}
		d := dateOnly(e.ScheduledDate)
		if prev, ok := byDate[d]; !ok || e.CreatedAt.After(prev.CreatedAt) {
			byDate[d] = e
		}
	}
	return byDate, nil
}

func (r *callRule) Evaluate(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.RequirementStatus, error) {
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

// LocateInsertionSlot skips any date that already has a call row regardless
// of status, so an insert can never collide with existing data.
func (r *callRule) LocateInsertionSlot(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (time.Time, error) {
	entries, err := r.calls.FindInRange(ctx, clientID, w.EffectiveStart, w.EffectiveEnd)
	if err != nil {
		return time.Time{}, &ReadError{Kind: r.Kind(), Err: err}
	}
	hasRow := make(map[time.Time]bool, len(entries))
	for _, e := range entries {
		hasRow[dateOnly(e.ScheduledDate)] = true
	}
	return locateSlot(r.Kind(), w, false, func(d time.Time) bool {
		return hasRow[d]
	})
}

func (r *callRule) LocateRemovalTarget(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.EntryRef, error) {
	byDate, err := r.completedByDate(ctx, clientID, w)
	if err != nil {
		return domain.EntryRef{}, err
	}
	var latest *domain.CompletedCall
	for d := range byDate {
		e := byDate[d]
		if latest == nil || dateOnly(e.ScheduledDate).After(dateOnly(latest.ScheduledDate)) {
			latest = &e
		}
	}
	if latest == nil {
		return domain.EntryRef{}, ErrNothingToRemove
	}
	return domain.EntryRef{Date: dateOnly(latest.ScheduledDate), IDs: []primitive.ObjectID{latest.ID}}, nil
}

// InsertAt attaches the synthetic call to a plan resolved through a three
// tier fallback: the client's own latest call, any plan in the system, then
// a plan referenced by any other client's call.
func (r *callRule) InsertAt(ctx context.Context, clientID primitive.ObjectID, date time.Time, adjustedBy primitive.ObjectID) error {
	planID, err := r.resolvePlanID(ctx, clientID)
	if err != nil {
		return err
	}
	_, err = r.calls.Insert(ctx, &domain.CompletedCall{
		ClientID:      clientID,
		PlanID:        planID,
		ScheduledDate: dateOnly(date),
		Status:        domain.CallCompleted,
		Source:        domain.SourceManual,
		Note:          "coach adjustment",
		AdjustedBy:    &adjustedBy,
	})
	return err
}

func (r *callRule) resolvePlanID(ctx context.Context, clientID primitive.ObjectID) (primitive.ObjectID, error) {
	planID, err := r.calls.LatestPlanIDForClient(ctx, clientID)
	if err == nil {
		return planID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, &ReadError{Kind: r.Kind(), Err: err}
	}
	planID, err = r.calls.AnyPlanID(ctx)
	if err == nil {
		return planID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, &ReadError{Kind: r.Kind(), Err: err}
	}
	planID, err = r.calls.AnyPlanIDFromOtherClients(ctx, clientID)
	if err == nil {
		return planID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, &ReadError{Kind: r.Kind(), Err: err}
	}
	return primitive.NilObjectID, ErrNoCallPlanConfigured
}

func (r *callRule) Remove(ctx context.Context, ref domain.EntryRef) error {
	for _, id := range ref.IDs {
		if err := r.calls.DeleteByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *callRule) CompliantDates(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) ([]time.Time, error) {
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
