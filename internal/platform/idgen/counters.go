package idgen

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds the counter documents, one per scope.
const CollectionName = "counters"

// MongoCounters advances counters with a single upserting findAndModify, so
// allocation is atomic even across server instances.
type MongoCounters struct {
	coll *mongo.Collection
}

// NewMongoCounters binds to the counters collection of the given database.
func NewMongoCounters(database *mongo.Database) *MongoCounters {
	return &MongoCounters{coll: database.Collection(CollectionName)}
}

func (c *MongoCounters) Next(ctx context.Context, scope string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := c.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": scope},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("advance counter %q: %w", scope, err)
	}
	return doc.Seq, nil
}

// MemoryCounters is an in-process CounterStore for tests and development.
type MemoryCounters struct {
	mu   sync.Mutex
	seqs map[string]int64
}

// NewMemoryCounters returns an empty MemoryCounters.
func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{seqs: make(map[string]int64)}
}

func (c *MemoryCounters) Next(_ context.Context, scope string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seqs[scope]++
	return c.seqs[scope], nil
}
