package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
)

// MongoStore persists documents in a MongoDB collection, one record per
// named construction.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoDoc is the stored record shape.
type mongoDoc struct {
	Name     string                `bson:"_id"`
	Document construction.Document `bson:"document"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Save stores or replaces a named document.
func (s *MongoStore) Save(ctx context.Context, name string, doc construction.Document) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document name must not be empty")
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": name},
		mongoDoc{Name: name, Document: doc},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save %q: %w", name, err)
	}
	return nil
}

// Load retrieves a document by name.
func (s *MongoStore) Load(ctx context.Context, name string) (construction.Document, error) {
	var rec mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return construction.Document{}, errors.New(errors.ErrCodeNotFound, "no document named %q", name)
	}
	if err != nil {
		return construction.Document{}, fmt.Errorf("mongo load %q: %w", name, err)
	}
	return rec.Document, nil
}

// List returns all stored names, sorted.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var rec struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		names = append(names, rec.Name)
	}
	return names, cur.Err()
}

// Delete removes a document by name.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("mongo delete %q: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "no document named %q", name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
