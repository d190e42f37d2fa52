package engine

import (
	"context"
	"errors"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// manualWeighInIncrement is added to the latest known weight when a coach
// inserts a synthetic weigh-in. The exact value is an implementation choice;
// the source=manual tag is what keeps the row auditable.
const manualWeighInIncrement = 0.1

// weightRule counts Friday weigh-ins.
type weightRule struct {
	weighIns repository.WeighInRepository
	users    repository.UserRepository
}

// NewWeightRule creates the weekly weigh-in requirement rule.
func NewWeightRule(weighIns repository.WeighInRepository, users repository.UserRepository) Rule {
	return &weightRule{weighIns: weighIns, users: users}
}

func (r *weightRule) Kind() domain.RequirementKind { return domain.RequirementWeight }

// fridayEntries maps each in-window Friday to its weigh-in.
func (r *weightRule) fridayEntries(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (map[time.Time]domain.WeighIn, error) {
	entries, err := r.weighIns.FindInRange(ctx, clientID, w.EffectiveStart, w.EffectiveEnd)
	if err != nil {
		return nil, &ReadError{Kind: r.Kind(), Err: err}
	}
	byDate := make(map[time.Time]domain.WeighIn)
	for _, e := range entries {
		if !e.IsFridayWeighIn() {
			continue
		}
		d := dateOnly(e.Date)
		if prev, ok := byDate[d]; !ok || e.CreatedAt.After(prev.CreatedAt) {
			byDate[d] = e
		}
	}
	return byDate, nil
}

func (r *weightRule) Evaluate(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.RequirementStatus, error) {
	byDate, err := r.fridayEntries(ctx, clientID, w)
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

func (r *weightRule) LocateInsertionSlot(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (time.Time, error) {
	byDate, err := r.fridayEntries(ctx, clientID, w)
	if err != nil {
		return time.Time{}, err
	}
	return locateSlot(r.Kind(), w, true, func(d time.Time) bool {
		_, taken := byDate[d]
		return taken
	})
}

func (r *weightRule) LocateRemovalTarget(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.EntryRef, error) {
	byDate, err := r.fridayEntries(ctx, clientID, w)
	if err != nil {
		return domain.EntryRef{}, err
	}
	var latest *domain.WeighIn
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

// InsertAt synthesizes a plausible weight: latest known weigh-in plus a small
// increment, falling back to the weight on the client's profile.
func (r *weightRule) InsertAt(ctx context.Context, clientID primitive.ObjectID, date time.Time, adjustedBy primitive.ObjectID) error {
	weight, err := r.baselineWeight(ctx, clientID)
	if err != nil {
		return err
	}
	_, err = r.weighIns.Insert(ctx, &domain.WeighIn{
		ClientID:   clientID,
		Date:       dateOnly(date),
		Weight:     weight + manualWeighInIncrement,
		Source:     domain.SourceManual,
		Note:       "coach adjustment",
		AdjustedBy: &adjustedBy,
	})
	return err
}

func (r *weightRule) baselineWeight(ctx context.Context, clientID primitive.ObjectID) (float64, error) {
	latest, err := r.weighIns.LatestByClientID(ctx, clientID)
	if err == nil && latest != nil {
		return latest.Weight, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return 0, &ReadError{Kind: r.Kind(), Err: err}
	}
	user, err := r.users.GetByID(ctx, clientID)
	if err != nil {
		return 0, &ReadError{Kind: r.Kind(), Err: err}
	}
	if user.CurrentWeight == nil {
		return 0, errors.New("no baseline weight known for client")
	}
	return *user.CurrentWeight, nil
}

func (r *weightRule) Remove(ctx context.Context, ref domain.EntryRef) error {
	for _, id := range ref.IDs {
		if err := r.weighIns.DeleteByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *weightRule) CompliantDates(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) ([]time.Time, error) {
	byDate, err := r.fridayEntries(ctx, clientID, w)
	if err != nil {
		return nil, err
	}
	set := make(map[time.Time]bool, len(byDate))
	for d := range byDate {
		set[d] = true
	}
	return sortedDates(set), nil
}
