package nurse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "nurses"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(database *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: database.Collection(CollectionName)}
}

func (r *MongoRepository) Create(ctx context.Context, n *Nurse) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert nurse: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Nurse, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var n Nurse
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find nurse %s: %w", id, err)
	}
	return &n, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*Nurse, error) {
	var n Nurse
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find nurse by email: %w", err)
	}
	return &n, nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id, status string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update nurse status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
