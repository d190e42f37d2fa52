package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rule is the contract every requirement variant implements. The counting
// predicate used by Evaluate and the occupancy check used by the slot
// locators must agree on the same date filter; keeping both behind one type
// is what prevents the display count and the adjustment target from
// drifting apart.
type Rule interface {
	Kind() domain.RequirementKind

	// Evaluate counts qualifying entries inside the window.
	Evaluate(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.RequirementStatus, error)

	// LocateInsertionSlot finds the first free date scanning backward from
	// the window's today. Never returns a date Evaluate already counts.
	LocateInsertionSlot(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (time.Time, error)

	// LocateRemovalTarget finds the most recent qualifying entry (or entry
	// pair) inside the window.
	LocateRemovalTarget(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) (domain.EntryRef, error)

	// InsertAt writes a synthetic entry for date, tagged source=manual so
	// audits can tell it from organic data. Surfaces repository.ErrDuplicate
	// on a uniqueness collision so the adjustment engine can re-locate.
	InsertAt(ctx context.Context, clientID primitive.ObjectID, date time.Time, adjustedBy primitive.ObjectID) error

	// Remove deletes exactly the referenced entry rows.
	Remove(ctx context.Context, ref domain.EntryRef) error

	// CompliantDates returns the rule's compliant days ascending, feeding
	// the streak walk. For most rules this equals the counting predicate;
	// Meal is stricter here (>=50% completion).
	CompliantDates(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) ([]time.Time, error)
}

// buildStatus assembles a RequirementStatus from a count.
func buildStatus(kind domain.RequirementKind, current int, lastDate *time.Time, lastRef *primitive.ObjectID) domain.RequirementStatus {
	required := kind.Required()
	pct := int(math.Round(float64(current) / float64(required) * 100))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return domain.RequirementStatus{
		Kind:          kind,
		Current:       current,
		Required:      required,
		Met:           current >= required,
		Percentage:    pct,
		LastEntryDate: lastDate,
		LastEntryRef:  lastRef,
	}
}

// failedStatus is the zeroed stand-in reported when a rule's read fails.
func failedStatus(kind domain.RequirementKind) domain.RequirementStatus {
	return domain.RequirementStatus{
		Kind:     kind,
		Required: kind.Required(),
		Failed:   true,
	}
}

// locateSlot scans backward from the window's today (clamped to the
// effective end) down to the effective start, returning the first date not
// rejected by occupied. fridaysOnly restricts the scan for the weekly rules.
func locateSlot(kind domain.RequirementKind, w domain.ChallengeWindow, fridaysOnly bool, occupied func(time.Time) bool) (time.Time, error) {
	scanFrom := dateOnly(w.Today)
	if scanFrom.After(w.EffectiveEnd) {
		scanFrom = w.EffectiveEnd
	}
	if scanFrom.Before(w.EffectiveStart) {
		return time.Time{}, &NoSlotError{Kind: kind, Reason: "end of challenge window reached"}
	}
	for d := scanFrom; !d.Before(w.EffectiveStart); d = d.AddDate(0, 0, -1) {
		if fridaysOnly && d.Weekday() != time.Friday {
			continue
		}
		if !occupied(d) {
			return d, nil
		}
	}
	return time.Time{}, &NoSlotError{Kind: kind, Reason: "all eligible days already have entries"}
}

// sortedDates returns the keys of a date set in ascending order.
func sortedDates(set map[time.Time]bool) []time.Time {
	dates := make([]time.Time, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
