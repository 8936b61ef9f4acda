package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore stores each collection as a MongoDB collection. Stored structs
// must tag their identifier with bson:"_id".
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) Driver() string { return "mongo" }

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) collection(name string) backend {
	return &mongoCollection{coll: s.db.Collection(name)}
}

type mongoCollection struct {
	coll *mongo.Collection
}

// toBSON converts a Filter to a query document. The JSON identifier "id"
// is stored as "_id".
func toBSON(f Filter) bson.M {
	q := bson.M{}
	for k, v := range f {
		if k == "id" {
			k = "_id"
		}
		q[k] = v
	}
	return q
}

func (m *mongoCollection) findAll(ctx context.Context, out any) error {
	return m.find(ctx, nil, out)
}

func (m *mongoCollection) find(ctx context.Context, f Filter, out any) error {
	cur, err := m.coll.Find(ctx, toBSON(f))
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func (m *mongoCollection) findByID(ctx context.Context, id string, out any) error {
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (m *mongoCollection) insert(ctx context.Context, _ string, doc any) error {
	_, err := m.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	return err
}

func (m *mongoCollection) replace(ctx context.Context, id string, doc any) error {
	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoCollection) delete(ctx context.Context, id string) (bool, error) {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (m *mongoCollection) count(ctx context.Context, f Filter) (int64, error) {
	return m.coll.CountDocuments(ctx, toBSON(f))
}
