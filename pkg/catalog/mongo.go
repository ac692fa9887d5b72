package catalog

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	cerrors "github.com/matzehuels/curator/pkg/errors"
)

// DefaultMongoCollection holds one document per record.
const DefaultMongoCollection = "records"

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps one document per record, keyed by the record id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *log.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig, logger *log.Logger) (*MongoStore, error) {
	if cfg.Database == "" {
		return nil, cerrors.New(cerrors.ErrCodeInvalidConfig, "mongo database name is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := NewMongoStoreFromCollection(client.Database(cfg.Database).Collection(cfg.Collection), logger)
	s.client = client
	return s, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close is a
// no-op for stores created this way.
func NewMongoStoreFromCollection(coll *mongo.Collection, logger *log.Logger) *MongoStore {
	if logger == nil {
		logger = log.Default()
	}
	return &MongoStore{coll: coll, logger: logger}
}

// LoadAll reads every document in the collection.
func (s *MongoStore) LoadAll(ctx context.Context) ([]*Entry, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "load catalog from mongo")
	}
	defer cur.Close(ctx)

	var entries []*Entry
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			s.logger.Warn("skipping record", "err", err)
			continue
		}
		e, err := fromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping record", "id", doc["id"], "err", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := cur.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "load catalog from mongo")
	}
	return entries, nil
}

// Save upserts the full record document.
func (s *MongoStore) Save(ctx context.Context, e *Entry) error {
	doc, err := toDocument(e)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"id": e.ID()}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save %s: %w", e.ID(), err)
	}
	return nil
}

// Close disconnects a client opened by [NewMongoStore].
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// toDocument converts the record's JSON form to BSON through relaxed
// extended JSON, so unknown keys survive.
func toDocument(e *Entry) (bson.M, error) {
	data, err := e.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("convert %s: %w", e.ID(), err)
	}
	return doc, nil
}

func fromDocument(doc bson.M) (*Entry, error) {
	delete(doc, "_id")
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

var _ Store = (*MongoStore)(nil)
