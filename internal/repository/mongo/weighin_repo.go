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

const weighInCollectionName = "weigh_ins"

// mongoWeighInRepository implements repository.WeighInRepository
type mongoWeighInRepository struct {
	collection *mongo.Collection
}

// NewMongoWeighInRepository creates a new weigh-in repository.
func NewMongoWeighInRepository(db *mongo.Database) repository.WeighInRepository {
	return &mongoWeighInRepository{
		collection: db.Collection(weighInCollectionName),
	}
}

// FindInRange returns the client's weigh-ins with date in [from, to].
func (r *mongoWeighInRepository) FindInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeighIn, error) {
	var entries []domain.WeighIn
	filter := bson.M{
		"clientId": clientID,
		"date":     bson.M{"$gte": from, "$lte": to},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

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

// LatestByClientID returns the client's most recent weigh-in, any date.
func (r *mongoWeighInRepository) LatestByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.WeighIn, error) {
	var entry domain.WeighIn
	filter := bson.M{"clientId": clientID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Insert writes one weigh-in row, one per client per day.
func (r *mongoWeighInRepository) Insert(ctx context.Context, entry *domain.WeighIn) (primitive.ObjectID, error) {
	if entry.ClientID == primitive.NilObjectID || entry.Date.IsZero() {
		return primitive.NilObjectID, errors.New("weigh-in requires clientId and date")
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

// DeleteByID removes exactly one weigh-in row.
func (r *mongoWeighInRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWeighInIndexes creates necessary indexes. Call during startup.
func EnsureWeighInIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
