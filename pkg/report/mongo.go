package report

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// Collection is the MongoDB collection holding reports.
const Collection = "reports"

const connectTimeout = 10 * time.Second

// MongoStore persists reports in MongoDB.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and ensures the created_at index exists.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "ping mongodb")
	}

	coll := client.Database(database).Collection(Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "create report index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, r *Report) error {
	if r == nil || r.ID == "" {
		return errs.New(errs.ErrCodeInvalidInput, "report has no id")
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "save report %s", r.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Report, error) {
	var r Report
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.New(errs.ErrCodeReportNotFound, "report %s not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "load report %s", id)
	}
	return &r, nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]*Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "list reports")
	}
	var out []*Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "decode reports")
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "delete report %s", id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
