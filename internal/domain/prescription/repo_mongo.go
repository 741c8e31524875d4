package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/careward/careward/internal/platform/docgen"
)

const CollectionName = "prescriptions"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(database *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: database.Collection(CollectionName)}
}

func (r *MongoRepository) Create(ctx context.Context, p *Prescription) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Prescription, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var p Prescription
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find prescription %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoRepository) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.AdministrationStatus != "" {
		filter["administration_status"] = f.AdministrationStatus
	}
	return r.find(ctx, filter, limit, offset)
}

func (r *MongoRepository) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Prescription, int, error) {
	return r.find(ctx, bson.M{"patient_id": patientID}, limit, offset)
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*Prescription, int, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list prescriptions: %w", err)
	}
	defer cur.Close(ctx)

	var out []*Prescription
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode prescriptions: %w", err)
	}
	return out, int(total), nil
}

func (r *MongoRepository) SetDocument(ctx context.Context, id string, loc *docgen.Locator) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if loc == nil {
		update["$unset"] = bson.M{"document": ""}
	} else {
		update["$set"].(bson.M)["document"] = loc
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("set prescription document: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
