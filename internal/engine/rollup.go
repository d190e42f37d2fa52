package engine

import (
	"context"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Engine evaluates challenge compliance for a client. One Rule per
// requirement kind; the same rules back both the read path and the
// adjustment path.
type Engine struct {
	rules map[domain.RequirementKind]Rule
}

// New creates an engine from the given rules.
func New(rules ...Rule) *Engine {
	m := make(map[domain.RequirementKind]Rule, len(rules))
	for _, r := range rules {
		m[r.Kind()] = r
	}
	return &Engine{rules: m}
}

// NewDefault wires the five standard requirement rules.
func NewDefault(deps Deps) *Engine {
	return New(
		NewWorkoutRule(deps.Workouts),
		NewMealRule(deps.Meals),
		NewWeightRule(deps.WeighIns, deps.Users),
		NewPhotoRule(deps.Photos),
		NewCallRule(deps.Calls),
	)
}

// Deps bundles the store interfaces the standard rules read and write.
type Deps struct {
	Workouts repository.WorkoutLogRepository
	Meals    repository.MealLogRepository
	WeighIns repository.WeighInRepository
	Photos   repository.PhotoRepository
	Calls    repository.CallRepository
	Users    repository.UserRepository
}

func (e *Engine) rule(kind domain.RequirementKind) (Rule, error) {
	r, ok := e.rules[kind]
	if !ok {
		return nil, ErrUnknownRequirement
	}
	return r, nil
}

// EvaluateChallenge runs every rule concurrently and combines the results.
// It never fails: a rule whose read errors out degrades to a zeroed status
// with Failed=true instead of blocking the other four.
func (e *Engine) EvaluateChallenge(ctx context.Context, clientID primitive.ObjectID, w domain.ChallengeWindow) domain.ChallengeProgress {
	statuses := make([]domain.RequirementStatus, len(domain.RequirementKinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range domain.RequirementKinds {
		i, kind := i, kind
		g.Go(func() error {
			rule, ok := e.rules[kind]
			if !ok {
				statuses[i] = failedStatus(kind)
				return nil
			}
			status, err := rule.Evaluate(gctx, clientID, w)
			if err != nil {
				logrus.Warnf("degrading %s status for client %s: %v", kind, clientID.Hex(), err)
				status = failedStatus(kind)
			}
			statuses[i] = status
			return nil
		})
	}
	_ = g.Wait() // goroutines only ever return nil

	allMet := true
	completed := 0
	for _, s := range statuses {
		if s.Met {
			completed++
		} else {
			allMet = false
		}
	}
	return domain.ChallengeProgress{
		Statuses:       statuses,
		AllMet:         allMet,
		CompletedCount: completed,
	}
}
