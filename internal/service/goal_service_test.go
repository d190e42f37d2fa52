package service

import (
	"context"
	"testing"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/engine"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeGoalRepo struct {
	goals map[primitive.ObjectID]*domain.GoalRecord
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{goals: make(map[primitive.ObjectID]*domain.GoalRecord)}
}

func (f *fakeGoalRepo) Create(_ context.Context, goal *domain.GoalRecord) (primitive.ObjectID, error) {
	goal.ID = primitive.NewObjectID()
	cp := *goal
	f.goals[goal.ID] = &cp
	return goal.ID, nil
}

func (f *fakeGoalRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.GoalRecord, error) {
	g, ok := f.goals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGoalRepo) GetByAssignmentID(_ context.Context, assignmentID primitive.ObjectID) ([]domain.GoalRecord, error) {
	var out []domain.GoalRecord
	for _, g := range f.goals {
		if g.AssignmentID == assignmentID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGoalRepo) GetPrimaryByAssignmentID(_ context.Context, assignmentID primitive.ObjectID) (*domain.GoalRecord, error) {
	for _, g := range f.goals {
		if g.AssignmentID == assignmentID && g.IsPrimary {
			cp := *g
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGoalRepo) Update(_ context.Context, goal *domain.GoalRecord) error {
	if _, ok := f.goals[goal.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *goal
	f.goals[goal.ID] = &cp
	return nil
}

func (f *fakeGoalRepo) UpdateCurrentValue(_ context.Context, id primitive.ObjectID, value float64) error {
	g, ok := f.goals[id]
	if !ok {
		return repository.ErrNotFound
	}
	g.CurrentValue = value
	return nil
}

func (f *fakeGoalRepo) SetPrimary(_ context.Context, assignmentID, id primitive.ObjectID) error {
	target, ok := f.goals[id]
	if !ok || target.AssignmentID != assignmentID {
		return repository.ErrNotFound
	}
	for _, g := range f.goals {
		if g.AssignmentID == assignmentID {
			g.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

type fakeWeighInReader struct{}

func (fakeWeighInReader) FindInRange(_ context.Context, _ primitive.ObjectID, _, _ time.Time) ([]domain.WeighIn, error) {
	return nil, nil
}

func (fakeWeighInReader) LatestByClientID(_ context.Context, _ primitive.ObjectID) (*domain.WeighIn, error) {
	return nil, repository.ErrNotFound
}

func (fakeWeighInReader) Insert(_ context.Context, _ *domain.WeighIn) (primitive.ObjectID, error) {
	return primitive.NewObjectID(), nil
}

func (fakeWeighInReader) DeleteByID(_ context.Context, _ primitive.ObjectID) error {
	return nil
}

func newTestGoalService(repo *fakeGoalRepo) GoalService {
	return NewGoalService(repo, engine.NewGoalCalculator(repo, fakeWeighInReader{}))
}

func TestSetPrimaryGoalDemotesOthers(t *testing.T) {
	repo := newFakeGoalRepo()
	svc := newTestGoalService(repo)
	assignmentID := primitive.NewObjectID()

	first, err := svc.CreateGoal(context.Background(), &domain.GoalRecord{
		AssignmentID: assignmentID,
		GoalType:     domain.GoalWeight,
		GoalName:     "Lose 5kg",
		TargetValue:  -5,
		IsPrimary:    true,
	})
	require.NoError(t, err)

	second, err := svc.CreateGoal(context.Background(), &domain.GoalRecord{
		AssignmentID: assignmentID,
		GoalType:     domain.GoalWaist,
		GoalName:     "Slimmer waist",
		TargetValue:  -4,
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetPrimaryGoal(context.Background(), assignmentID, second.ID))

	assert.False(t, repo.goals[first.ID].IsPrimary)
	assert.True(t, repo.goals[second.ID].IsPrimary)
}

func TestSetPrimaryGoalUnknownGoal(t *testing.T) {
	svc := newTestGoalService(newFakeGoalRepo())

	err := svc.SetPrimaryGoal(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestGetPrimaryGoalProgressWithoutPrimary(t *testing.T) {
	svc := newTestGoalService(newFakeGoalRepo())

	_, _, err := svc.GetPrimaryGoalProgress(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrNoPrimaryGoal)
}

func TestCreateGoalRejectsUnknownType(t *testing.T) {
	svc := newTestGoalService(newFakeGoalRepo())

	_, err := svc.CreateGoal(context.Background(), &domain.GoalRecord{
		AssignmentID: primitive.NewObjectID(),
		GoalType:     domain.GoalType("steps"),
		GoalName:     "Walk more",
	})
	assert.Error(t, err)
}
