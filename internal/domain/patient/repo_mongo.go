package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func mongoFindOpts(limit, offset int, sort bson.D) *options.FindOptions {
	return options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(sort)
}

// CollectionName holds patient documents.
const CollectionName = "patients"

// MongoRepository is the MongoDB-backed Repository.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(database *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: database.Collection(CollectionName)}
}

func (r *MongoRepository) Create(ctx context.Context, p *Patient) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	var p Patient
	err := r.coll.FindOne(ctx, bson.M{"patient_id": patientID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find patient %s: %w", patientID, err)
	}
	return &p, nil
}

func (r *MongoRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Patient, int, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	opts := mongoFindOpts(limit, offset, bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer cur.Close(ctx)

	var patients []*Patient
	if err := cur.All(ctx, &patients); err != nil {
		return nil, 0, fmt.Errorf("decode patients: %w", err)
	}
	return patients, int(total), nil
}

func (r *MongoRepository) SetActive(ctx context.Context, patientID string, active bool) error {
	return r.updateOne(ctx, patientID, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}})
}

func (r *MongoRepository) AddVisit(ctx context.Context, patientID string, v Visit) error {
	return r.updateOne(ctx, patientID, bson.M{
		"$push": bson.M{"visits": v},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *MongoRepository) AddDocuments(ctx context.Context, patientID string, docs []Document) error {
	return r.updateOne(ctx, patientID, bson.M{
		"$push": bson.M{"documents": bson.M{"$each": docs}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *MongoRepository) RenameDocument(ctx context.Context, patientID, docID, name string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"patient_id": patientID, "documents.id": docID},
		bson.M{"$set": bson.M{
			"documents.$.name": name,
			"updated_at":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("rename document %s: %w", docID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) RemoveDocument(ctx context.Context, patientID, docID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"patient_id": patientID},
		bson.M{
			"$pull": bson.M{"documents": bson.M{"id": docID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("remove document %s: %w", docID, err)
	}
	if res.MatchedCount == 0 || res.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) SetPhoto(ctx context.Context, patientID string, att *Attachment) error {
	return r.setAttachment(ctx, patientID, "photo", att)
}

func (r *MongoRepository) SetIDProof(ctx context.Context, patientID string, att *Attachment) error {
	return r.setAttachment(ctx, patientID, "id_proof", att)
}

func (r *MongoRepository) setAttachment(ctx context.Context, patientID, field string, att *Attachment) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if att == nil {
		update["$unset"] = bson.M{field: ""}
	} else {
		update["$set"].(bson.M)[field] = att
	}
	return r.updateOne(ctx, patientID, update)
}

func (r *MongoRepository) updateOne(ctx context.Context, patientID string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"patient_id": patientID}, update)
	if err != nil {
		return fmt.Errorf("update patient %s: %w", patientID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
