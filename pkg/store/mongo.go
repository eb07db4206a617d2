package store

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/tracetower/pkg/errors"
)

const (
	mongoDatabase   = "tracetower"
	mongoCollection = "traces"
)

// MongoStore persists traces in MongoDB. The serialization types carry
// bson tags, so documents round-trip without intermediate structs.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to the given MongoDB URI and verifies the
// connection.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, st *StoredTrace) error {
	if st.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "stored trace needs an id")
	}
	st.denormalize()
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": st.ID}, st, opts); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save trace %q", st.ID)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (*StoredTrace, error) {
	var st StoredTrace
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&st)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeTraceNotFound, "trace %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load trace %q", id)
	}
	return &st, nil
}

// List implements Store. The payload fields are projected away so
// listing stays cheap for large traces.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"document": 0, "layout": 0})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list traces")
	}
	defer cur.Close(ctx)

	var summaries []Summary
	for cur.Next(ctx) {
		var st StoredTrace
		if err := cur.Decode(&st); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode trace summary")
		}
		summaries = append(summaries, summarize(&st))
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "iterate traces")
	}
	return summaries, nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete trace %q", id)
	}
	return nil
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
