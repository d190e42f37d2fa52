package repository

import (
	"context"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate entry")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientIDToCoach(ctx context.Context, coachID, clientID primitive.ObjectID) error
	GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	SetCoachForClient(ctx context.Context, clientID, coachID primitive.ObjectID) error
	UpdateCurrentWeight(ctx context.Context, clientID primitive.ObjectID, weight float64) error
}

// AssignmentRepository defines the interface for challenge assignment data.
// The store enforces at most one active assignment per client.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.ChallengeAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ChallengeAssignment, error)
	GetActiveByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.ChallengeAssignment, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.ChallengeAssignment, error)
	Update(ctx context.Context, assignment *domain.ChallengeAssignment) error
}

// GoalRepository defines the interface for goal record data.
type GoalRepository interface {
	Create(ctx context.Context, goal *domain.GoalRecord) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GoalRecord, error)
	GetByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.GoalRecord, error)
	GetPrimaryByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) (*domain.GoalRecord, error)
	Update(ctx context.Context, goal *domain.GoalRecord) error
	UpdateCurrentValue(ctx context.Context, id primitive.ObjectID, value float64) error
	// SetPrimary demotes every other goal on the assignment before promoting id.
	SetPrimary(ctx context.Context, assignmentID, id primitive.ObjectID) error
}

// WorkoutLogRepository reads and writes workout completion rows.
// Insert must surface ErrDuplicate on a (clientId, date) collision.
type WorkoutLogRepository interface {
	FindInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutCompletion, error)
	Insert(ctx context.Context, entry *domain.WorkoutCompletion) (primitive.ObjectID, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// MealLogRepository reads and writes daily meal progress rows.
type MealLogRepository interface {
	FindInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.MealProgressDay, error)
	Insert(ctx context.Context, entry *domain.MealProgressDay) (primitive.ObjectID, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// WeighInRepository reads and writes weigh-in rows.
type WeighInRepository interface {
	FindInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeighIn, error)
	// LatestByClientID returns the most recent weigh-in regardless of window.
	LatestByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.WeighIn, error)
	Insert(ctx context.Context, entry *domain.WeighIn) (primitive.ObjectID, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// PhotoRepository reads and writes progress photo rows.
// Insert must surface ErrDuplicate on a (clientId, date, type) collision.
type PhotoRepository interface {
	FindInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.ProgressPhoto, error)
	Insert(ctx context.Context, entry *domain.ProgressPhoto) (primitive.ObjectID, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// CallRepository reads and writes coaching call rows and resolves call plans.
type CallRepository interface {
	FindInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.CompletedCall, error)
	Insert(ctx context.Context, entry *domain.CompletedCall) (primitive.ObjectID, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	// LatestPlanIDForClient returns the plan behind the client's most recent call.
	LatestPlanIDForClient(ctx context.Context, clientID primitive.ObjectID) (primitive.ObjectID, error)
	// AnyPlanID returns any configured call plan in the system.
	AnyPlanID(ctx context.Context) (primitive.ObjectID, error)
	// AnyPlanIDFromOtherClients returns a plan referenced by any other client's call.
	AnyPlanIDFromOtherClients(ctx context.Context, excludeClientID primitive.ObjectID) (primitive.ObjectID, error)
}
