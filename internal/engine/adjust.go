package engine

import (
	"context"
	"errors"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// adjustmentCeiling is a defensive bound on manual adds, independent of any
// rule's required threshold. No requirement can legitimately need more
// entries than there are days in the window.
const adjustmentCeiling = domain.ChallengeLengthDays

// AddRequirementEntry inserts one synthetic entry for kind via the rule's
// slot locator, then re-evaluates and returns the fresh status. A uniqueness
// collision on the chosen slot is retried once with a re-located slot before
// failing with ErrSlotAlreadyTaken.
func (e *Engine) AddRequirementEntry(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow, kind domain.RequirementKind, adjustedBy primitive.ObjectID) (domain.RequirementStatus, error) {
	rule, err := e.rule(kind)
	if err != nil {
		return domain.RequirementStatus{}, err
	}

	status, err := rule.Evaluate(ctx, clientID, w)
	if err != nil {
		return domain.RequirementStatus{}, err
	}
	if status.Current >= adjustmentCeiling {
		return domain.RequirementStatus{}, &NoSlotError{Kind: kind, Reason: "entry ceiling reached for this challenge"}
	}

	date, err := rule.LocateInsertionSlot(ctx, clientID, w)
	if err != nil {
		return domain.RequirementStatus{}, err
	}

	if err := rule.InsertAt(ctx, clientID, date, adjustedBy); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return domain.RequirementStatus{}, &WriteError{Kind: kind, Date: date, Err: err}
		}
		// A concurrent adjustment claimed the slot between locate and
		// insert; re-locate once against the fresh state.
		logrus.Infof("slot %s taken for %s adjustment, relocating", date.Format("2006-01-02"), kind)
		date, err = rule.LocateInsertionSlot(ctx, clientID, w)
		if err != nil {
			return domain.RequirementStatus{}, err
		}
		if err := rule.InsertAt(ctx, clientID, date, adjustedBy); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.RequirementStatus{}, ErrSlotAlreadyTaken
			}
			return domain.RequirementStatus{}, &WriteError{Kind: kind, Date: date, Err: err}
		}
	}

	return rule.Evaluate(ctx, clientID, w)
}

// RemoveRequirementEntry deletes the most recent qualifying entry (for
// photos, the complete front+side pair) and returns the fresh status.
func (e *Engine) RemoveRequirementEntry(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow, kind domain.RequirementKind) (domain.RequirementStatus, error) {
	rule, err := e.rule(kind)
	if err != nil {
		return domain.RequirementStatus{}, err
	}

	status, err := rule.Evaluate(ctx, clientID, w)
	if err != nil {
		return domain.RequirementStatus{}, err
	}
	if status.Current == 0 {
		return domain.RequirementStatus{}, ErrNothingToRemove
	}

	ref, err := rule.LocateRemovalTarget(ctx, clientID, w)
	if err != nil {
		return domain.RequirementStatus{}, err
	}
	if err := rule.Remove(ctx, ref); err != nil {
		return domain.RequirementStatus{}, &WriteError{Kind: kind, Date: ref.Date, Err: err}
	}

	return rule.Evaluate(ctx, clientID, w)
}
