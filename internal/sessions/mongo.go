package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linkshare/linkshare/backend/session-store/pkg/metrics"
)

const userIDField = "user_data.id"

// MongoRepository stores sessions of type S in the collection named by S's Kind.
// Uniqueness of the token comes from the collection's unique index, so the
// collection must be provisioned before the repository is used.
type MongoRepository[S any, P Record[S]] struct {
	coll *mongo.Collection
	kind Kind
	now  func() time.Time
}

func NewMongoRepository[S any, P Record[S]](db *mongo.Database) *MongoRepository[S, P] {
	kind := kindOf[S, P]()
	return &MongoRepository[S, P]{coll: db.Collection(kind.Collection), kind: kind, now: time.Now}
}

func (r *MongoRepository[S, P]) Insert(ctx context.Context, s *S) error {
	P(s).assignID()
	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			metrics.SessionWrites.WithLabelValues(r.kind.Collection, "duplicate").Inc()
			return fmt.Errorf("%w in %s", ErrDuplicateToken, r.kind.Collection)
		}
		metrics.SessionWrites.WithLabelValues(r.kind.Collection, "error").Inc()
		return fmt.Errorf("insert into %s: %w", r.kind.Collection, err)
	}
	metrics.SessionWrites.WithLabelValues(r.kind.Collection, "inserted").Inc()
	return nil
}

func (r *MongoRepository[S, P]) Get(ctx context.Context, token string) (*S, error) {
	var s S
	err := r.coll.FindOne(ctx, bson.D{{Key: r.kind.TokenField, Value: token}}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find in %s: %w", r.kind.Collection, err)
	}
	// the TTL monitor only sweeps periodically
	if expired(P(&s).ExpiresAt(), r.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MongoRepository[S, P]) Delete(ctx context.Context, token string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: r.kind.TokenField, Value: token}})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", r.kind.Collection, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository[S, P]) DeleteByUser(ctx context.Context, userID int64) ([]string, error) {
	filter := bson.D{{Key: userIDField, Value: userID}}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: r.kind.TokenField, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find user sessions in %s: %w", r.kind.Collection, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode user sessions in %s: %w", r.kind.Collection, err)
	}
	tokens := make([]string, 0, len(docs))
	for _, d := range docs {
		if t, ok := d[r.kind.TokenField].(string); ok {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	if _, err := r.coll.DeleteMany(ctx, bson.D{{Key: r.kind.TokenField, Value: bson.D{{Key: "$in", Value: tokens}}}}); err != nil {
		return nil, fmt.Errorf("delete user sessions from %s: %w", r.kind.Collection, err)
	}
	return tokens, nil
}
