package service

import (
	"context"
	"errors"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/engine"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrGoalNotFound  = errors.New("goal not found")
	ErrNoPrimaryGoal = errors.New("assignment has no primary goal")
)

// GoalService manages personal goal records and their computed progress.
type GoalService interface {
	CreateGoal(ctx context.Context, goal *domain.GoalRecord) (*domain.GoalRecord, error)
	UpdateGoal(ctx context.Context, goal *domain.GoalRecord) error
	GetGoals(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.GoalRecord, error)
	SetPrimaryGoal(ctx context.Context, assignmentID, goalID primitive.ObjectID) error
	// GetPrimaryGoalProgress evaluates the primary goal, auto-syncing the
	// current value from the latest weigh-in when the goal opts in.
	GetPrimaryGoalProgress(ctx context.Context, assignmentID, clientID primitive.ObjectID, window *domain.ChallengeWindow) (*domain.GoalRecord, *domain.GoalProgress, error)
}

// goalService implements the GoalService interface.
type goalService struct {
	goalRepo   repository.GoalRepository
	calculator *engine.GoalCalculator
}

// NewGoalService creates a new instance of goalService.
func NewGoalService(goalRepo repository.GoalRepository, calculator *engine.GoalCalculator) GoalService {
	return &goalService{
		goalRepo:   goalRepo,
		calculator: calculator,
	}
}

// CreateGoal stores a coach-defined goal for an assignment.
func (s *goalService) CreateGoal(ctx context.Context, goal *domain.GoalRecord) (*domain.GoalRecord, error) {
	if goal.AssignmentID == primitive.NilObjectID {
		return nil, errors.New("assignment ID is required")
	}
	if goal.GoalType != domain.GoalWeight && goal.GoalType != domain.GoalWaist && goal.GoalType != domain.GoalBodyFat {
		return nil, errors.New("unknown goal type")
	}
	id, err := s.goalRepo.Create(ctx, goal)
	if err != nil {
		return nil, err
	}
	goal.ID = id
	return goal, nil
}

// UpdateGoal persists coach edits.
func (s *goalService) UpdateGoal(ctx context.Context, goal *domain.GoalRecord) error {
	err := s.goalRepo.Update(ctx, goal)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGoalNotFound
	}
	return err
}

// GetGoals returns all goals for an assignment, primary first.
func (s *goalService) GetGoals(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.GoalRecord, error) {
	return s.goalRepo.GetByAssignmentID(ctx, assignmentID)
}

// SetPrimaryGoal promotes one goal, demoting all others on the assignment.
func (s *goalService) SetPrimaryGoal(ctx context.Context, assignmentID, goalID primitive.ObjectID) error {
	err := s.goalRepo.SetPrimary(ctx, assignmentID, goalID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGoalNotFound
	}
	return err
}

// GetPrimaryGoalProgress evaluates the assignment's primary goal.
func (s *goalService) GetPrimaryGoalProgress(ctx context.Context, assignmentID, clientID primitive.ObjectID, window *domain.ChallengeWindow) (*domain.GoalRecord, *domain.GoalProgress, error) {
	goal, err := s.goalRepo.GetPrimaryByAssignmentID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNoPrimaryGoal
		}
		return nil, nil, err
	}
	progress, err := s.calculator.EvaluateGoal(ctx, goal, clientID, window)
	if err != nil {
		return nil, nil, err
	}
	return goal, &progress, nil
}
