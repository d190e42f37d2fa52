package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const goalCollectionName = "goals"

// mongoGoalRepository implements repository.GoalRepository
type mongoGoalRepository struct {
	collection *mongo.Collection
}

// NewMongoGoalRepository creates a new GoalRecord repository.
func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return &mongoGoalRepository{
		collection: db.Collection(goalCollectionName),
	}
}

// Create inserts a new goal. When the goal is marked primary, every other
// goal on the assignment is demoted first so the one-primary invariant holds.
func (r *mongoGoalRepository) Create(ctx context.Context, goal *domain.GoalRecord) (primitive.ObjectID, error) {
	if goal.AssignmentID == primitive.NilObjectID || goal.GoalType == "" {
		return primitive.NilObjectID, errors.New("goal requires assignmentId and goalType")
	}
	goal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	if goal.IsPrimary {
		if err := r.demoteAll(ctx, goal.AssignmentID); err != nil {
			return primitive.NilObjectID, err
		}
	}

	result, err := r.collection.InsertOne(ctx, goal)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted goal ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single goal.
func (r *mongoGoalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GoalRecord, error) {
	var goal domain.GoalRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

// GetByAssignmentID retrieves all goals for an assignment, primary first.
func (r *mongoGoalRepository) GetByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.GoalRecord, error) {
	var goals []domain.GoalRecord
	filter := bson.M{"assignmentId": assignmentID}
	findOptions := options.Find().SetSort(bson.D{{Key: "isPrimary", Value: -1}, {Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// GetPrimaryByAssignmentID retrieves the assignment's primary goal.
func (r *mongoGoalRepository) GetPrimaryByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) (*domain.GoalRecord, error) {
	var goal domain.GoalRecord
	filter := bson.M{"assignmentId": assignmentID, "isPrimary": true}
	err := r.collection.FindOne(ctx, filter).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

// Update persists coach edits to a goal.
func (r *mongoGoalRepository) Update(ctx context.Context, goal *domain.GoalRecord) error {
	if goal.ID == primitive.NilObjectID {
		return errors.New("goal ID is required for update")
	}
	filter := bson.M{"_id": goal.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"goalName":      goal.GoalName,
			"startingValue": goal.StartingValue,
			"currentValue":  goal.CurrentValue,
			"targetValue":   goal.TargetValue,
			"unit":          goal.Unit,
			"deadline":      goal.Deadline,
			"motivation":    goal.Motivation,
			"autoTrack":     goal.AutoTrack,
			"updatedAt":     time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateCurrentValue overwrites only the auto-tracked current value.
func (r *mongoGoalRepository) UpdateCurrentValue(ctx context.Context, id primitive.ObjectID, value float64) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{"currentValue": value, "updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetPrimary demotes every goal on the assignment, then promotes id.
func (r *mongoGoalRepository) SetPrimary(ctx context.Context, assignmentID, id primitive.ObjectID) error {
	if err := r.demoteAll(ctx, assignmentID); err != nil {
		return err
	}
	filter := bson.M{"_id": id, "assignmentId": assignmentID}
	update := bson.M{
		"$set": bson.M{"isPrimary": true, "updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoGoalRepository) demoteAll(ctx context.Context, assignmentID primitive.ObjectID) error {
	filter := bson.M{"assignmentId": assignmentID, "isPrimary": true}
	update := bson.M{
		"$set": bson.M{"isPrimary": false, "updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// EnsureGoalIndexes creates necessary indexes. Call during startup.
func EnsureGoalIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "assignmentId", Value: 1}, {Key: "isPrimary", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
