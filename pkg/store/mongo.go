package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/depsync/pkg/errors"
)

// MongoConfig configures the MongoDB run store.
type MongoConfig struct {
	URI        string // Connection string (e.g. mongodb://localhost:27017)
	Database   string // Database name (default: depsync)
	Collection string // Collection name (default: runs)
}

// MongoStore persists runs in a MongoDB collection, keyed by run ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "depsync"
	}
	if cfg.Collection == "" {
		cfg.Collection = "runs"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connecting to mongodb failed")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "mongodb is not reachable")
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Put inserts or replaces a run.
func (s *MongoStore) Put(ctx context.Context, run *Run) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": run.ID}, run,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "storing run %s failed", run.ID)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeRunNotFound, "no run with id %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "loading run %s failed", id)
	}
	return &run, nil
}

// List returns the most recent runs, newest first.
func (s *MongoStore) List(ctx context.Context, limit int) ([]*Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "listing runs failed")
	}
	var runs []*Run
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decoding runs failed")
	}
	return runs, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
