package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// photoSet holds the rows found for one Friday.
type photoSet struct {
	front *domain.ProgressPhoto
	side  *domain.ProgressPhoto
}

func (s photoSet) complete() bool { return s.front != nil && s.side != nil }

// photoRule counts complete Friday photo sets (front + side on one date).
type photoRule struct {
	photos repository.PhotoRepository
}

// NewPhotoRule creates the progress-photo requirement rule.
func NewPhotoRule(photos repository.PhotoRepository) Rule {
	return &photoRule{photos: photos}
}

func (r *photoRule) Kind() domain.RequirementKind { return domain.RequirementPhoto }

// setsByFriday groups in-window photos into per-Friday sets. Photos on
// other weekdays are ignored entirely.
func (r *photoRule) setsByFriday(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (map[time.Time]photoSet, error) {
	entries, err := r.photos.FindInRange(ctx, clientID, w.EffectiveStart, w.EffectiveEnd)
	if err != nil {
		return nil, &ReadError{Kind: r.Kind(), Err: err}
	}
	sets := make(map[time.Time]photoSet)
	for i := range entries {
		e := entries[i]
		d := dateOnly(e.Date)
		if d.Weekday() != time.Friday {
			continue
		}
		set := sets[d]
		switch e.Type {
		case domain.PhotoFront:
			if set.front == nil {
				set.front = &entries[i]
			}
		case domain.PhotoSide:
			if set.side == nil {
				set.side = &entries[i]
			}
		}
		sets[d] = set
	}
	return sets, nil
}

func (r *photoRule) Evaluate(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.RequirementStatus, error) {
	sets, err := r.setsByFriday(ctx, clientID, w)
	if err != nil {
		return failedStatus(r.Kind()), err
	}
	count := 0
	var lastDate *time.Time
	var lastRef *primitive.ObjectID
	for d, set := range sets {
		if !set.complete() {
			continue
		}
		count++
		if lastDate == nil || d.After(*lastDate) {
			day, id := d, set.front.ID
			lastDate, lastRef = &day, &id
		}
	}
	return buildStatus(r.Kind(), count, lastDate, lastRef), nil
}

// LocateInsertionSlot targets the first Friday whose set is incomplete,
// including Fridays with one photo already present.
func (r *photoRule) LocateInsertionSlot(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (time.Time, error) {
	sets, err := r.setsByFriday(ctx, clientID, w)
	if err != nil {
		return time.Time{}, err
	}
	return locateSlot(r.Kind(), w, true, func(d time.Time) bool {
		return sets[d].complete()
	})
}

// LocateRemovalTarget returns both rows of the most recent complete set;
// the pair is removed atomically.
func (r *photoRule) LocateRemovalTarget(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.EntryRef, error) {
	sets, err := r.setsByFriday(ctx, clientID, w)
	if err != nil {
		return domain.EntryRef{}, err
	}
	var latestDate time.Time
	var latest *photoSet
	for d := range sets {
		set := sets[d]
		if !set.complete() {
			continue
		}
		if latest == nil || d.After(latestDate) {
			latestDate, latest = d, &set
		}
	}
	if latest == nil {
		return domain.EntryRef{}, ErrNothingToRemove
	}
	return domain.EntryRef{
		Date: latestDate,
		IDs:  []primitive.ObjectID{latest.front.ID, latest.side.ID},
	}, nil
}

// InsertAt fills in only the missing photo type(s) for the slot date using
// placeholder object keys. If the second row of a pair fails to write, the
// first is deleted again so no half-set is left behind.
func (r *photoRule) InsertAt(ctx context.Context, clientID primitive.ObjectID, date time.Time, adjustedBy primitive.ObjectID) error {
	day := dateOnly(date)
	sets, err := r.setsByFriday(ctx, clientID, domain.ChallengeWindow{
		EffectiveStart: day,
		EffectiveEnd:   day,
		Today:          day,
	})
	if err != nil {
		return err
	}
	set := sets[day]

	var missing []domain.PhotoType
	if set.front == nil {
		missing = append(missing, domain.PhotoFront)
	}
	if set.side == nil {
		missing = append(missing, domain.PhotoSide)
	}
	if len(missing) == 0 {
		return repository.ErrDuplicate
	}

	var inserted []primitive.ObjectID
	for _, t := range missing {
		id, err := r.photos.Insert(ctx, &domain.ProgressPhoto{
			ClientID:   clientID,
			Date:       day,
			Type:       t,
			ObjectKey:  placeholderObjectKey(t),
			Source:     domain.SourceManual,
			Note:       "coach adjustment",
			AdjustedBy: &adjustedBy,
		})
		if err != nil {
			// Roll back the half-written pair before surfacing the error.
			for _, prev := range inserted {
				if delErr := r.photos.DeleteByID(ctx, prev); delErr != nil {
					logrus.Errorf("compensating photo delete failed for %s: %v", prev.Hex(), delErr)
				}
			}
			return err
		}
		inserted = append(inserted, id)
	}
	return nil
}

func placeholderObjectKey(t domain.PhotoType) string {
	return fmt.Sprintf("manual-adjustments/%s-%s.jpg", t, uuid.NewString())
}

func (r *photoRule) Remove(ctx context.Context, ref domain.EntryRef) error {
	for _, id := range ref.IDs {
		if err := r.photos.DeleteByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *photoRule) CompliantDates(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) ([]time.Time, error) {
	sets, err := r.setsByFriday(ctx, clientID, w)
	if err != nil {
		return nil, err
	}
	set := make(map[time.Time]bool)
	for d, s := range sets {
		if s.complete() {
			set[d] = true
		}
	}
	return sortedDates(set), nil
}
