package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultDatabase   = "flatmol"
	sessionCollection = "sessions"
)

// MongoStore is a Store backed by MongoDB, for deployments where
// several server instances share sessions. Expiry is enforced on read
// as well as by Cleanup, so a lagging cleanup never revives a session.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the session
// collection. An empty database name uses "flatmol".
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = defaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(sessionCollection),
	}, nil
}

// Get retrieves a session by id.
func (m *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", id, err)
	}
	if s.Expired() {
		return nil, ErrExpired
	}
	return &s, nil
}

// Put stores or replaces a session.
func (m *MongoStore) Put(ctx context.Context, s *Session) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, opts); err != nil {
		return fmt.Errorf("store session %s: %w", s.ID, err)
	}
	return nil
}

// Delete removes a session.
func (m *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// List returns all live sessions, newest first.
func (m *MongoStore) List(ctx context.Context) ([]*Session, error) {
	filter := bson.M{"expires_at": bson.M{"$gt": time.Now().UTC()}}
	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cur.Close(ctx)

	var out []*Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return out, nil
}

// Cleanup removes expired sessions.
func (m *MongoStore) Cleanup(ctx context.Context) error {
	filter := bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}}
	if _, err := m.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
