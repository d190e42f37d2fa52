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

const (
	callCollectionName     = "completed_calls"
	callPlanCollectionName = "call_plans"
)

// mongoCallRepository implements repository.CallRepository
type mongoCallRepository struct {
	collection *mongo.Collection
	plans      *mongo.Collection
}

// NewMongoCallRepository creates a new coaching call repository.
func NewMongoCallRepository(db *mongo.Database) repository.CallRepository {
	return &mongoCallRepository{
		collection: db.Collection(callCollectionName),
		plans:      db.Collection(callPlanCollectionName),
	}
}

// FindInRange returns the client's call rows with scheduledDate in [from, to].
func (r *mongoCallRepository) FindInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.CompletedCall, error) {
	var entries []domain.CompletedCall
	filter := bson.M{
		"clientId":      clientID,
		"scheduledDate": bson.M{"$gte": from, "$lte": to},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Insert writes one call row, one per client per day.
func (r *mongoCallRepository) Insert(ctx context.Context, entry *domain.CompletedCall) (primitive.ObjectID, error) {
	if entry.ClientID == primitive.NilObjectID || entry.ScheduledDate.IsZero() {
		return primitive.NilObjectID, errors.New("call requires clientId and scheduledDate")
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return entry.ID, nil
}

// DeleteByID removes exactly one call row.
func (r *mongoCallRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// LatestPlanIDForClient returns the plan behind the client's newest call.
func (r *mongoCallRepository) LatestPlanIDForClient(ctx context.Context, clientID primitive.ObjectID) (primitive.ObjectID, error) {
	var call domain.CompletedCall
	filter := bson.M{"clientId": clientID, "planId": bson.M{"$ne": primitive.NilObjectID}}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "scheduledDate", Value: -1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&call)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, repository.ErrNotFound
		}
		return primitive.NilObjectID, err
	}
	return call.PlanID, nil
}

// AnyPlanID returns any configured call plan in the system.
func (r *mongoCallRepository) AnyPlanID(ctx context.Context) (primitive.ObjectID, error) {
	var plan domain.CallPlan
	err := r.plans.FindOne(ctx, bson.M{}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, repository.ErrNotFound
		}
		return primitive.NilObjectID, err
	}
	return plan.ID, nil
}

// AnyPlanIDFromOtherClients returns a plan referenced by another client's call.
func (r *mongoCallRepository) AnyPlanIDFromOtherClients(ctx context.Context, excludeClientID primitive.ObjectID) (primitive.ObjectID, error) {
	var call domain.CompletedCall
	filter := bson.M{
		"clientId": bson.M{"$ne": excludeClientID},
		"planId":   bson.M{"$ne": primitive.NilObjectID},
	}
	err := r.collection.FindOne(ctx, filter).Decode(&call)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, repository.ErrNotFound
		}
		return primitive.NilObjectID, err
	}
	return call.PlanID, nil
}

// EnsureCallIndexes creates necessary indexes. Call during startup.
func EnsureCallIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
