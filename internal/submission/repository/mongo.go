package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	submission.Submission `bson:",inline"`
}

// MongoRepo stores submissions in a collection keyed by ObjectID; the public
// id is the ObjectID's hex form.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) *MongoRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}}
	_, _ = col.Indexes().CreateOne(ctx, idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, s *submission.Submission) (string, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = submission.CreationTime(s.CreatedAt)
	res, err := m.col.InsertOne(ctx, mongoDoc{Submission: *s})
	if err != nil {
		return "", fmt.Errorf("insert submission: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	s.ID = oid.Hex()
	return s.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*submission.Submission, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, submission.ErrNotFound
	}
	var d mongoDoc
	if err := m.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, submission.ErrNotFound
		}
		return nil, err
	}
	return fromDoc(d), nil
}

func pendingGuestFilter() bson.M {
	return bson.M{"status": submission.StatusPending, "authorEmail": bson.M{"$nin": bson.A{"", nil}}}
}

func (m *MongoRepo) ListPending(ctx context.Context, limit int) ([]*submission.Submission, int64, error) {
	filter := pendingGuestFilter()
	total, err := m.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []*submission.Submission{}
	for cur.Next(ctx) {
		var d mongoDoc
		if err := cur.Decode(&d); err != nil {
			return nil, 0, err
		}
		out = append(out, fromDoc(d))
	}
	return out, total, cur.Err()
}

func (m *MongoRepo) UpdateStatus(ctx context.Context, id string, status submission.Status) error {
	return m.set(ctx, id, bson.M{"$set": bson.M{"status": status}})
}

func (m *MongoRepo) Trash(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return submission.ErrNotFound
	}
	// pipeline update so previousStatus is copied from the stored status;
	// a document that is already trashed keeps both markers
	isTrashed := bson.M{"$eq": bson.A{"$status", submission.StatusTrashed}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"previousStatus": bson.M{"$cond": bson.A{isTrashed, "$previousStatus", "$status"}},
			"trashedAt":      bson.M{"$cond": bson.A{isTrashed, "$trashedAt", time.Now().UTC()}},
			"status":         submission.StatusTrashed,
		}}},
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": oid}, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return submission.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) AttachFeaturedImage(ctx context.Context, id, ref string) error {
	return m.set(ctx, id, bson.M{"$set": bson.M{"featuredImage": ref}})
}

func (m *MongoRepo) set(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return submission.ErrNotFound
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return submission.ErrNotFound
	}
	return nil
}

func fromDoc(d mongoDoc) *submission.Submission {
	s := d.Submission
	s.ID = d.ID.Hex()
	s.CreatedAt = s.CreatedAt.UTC()
	return &s
}
