package schema

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Server error codes the provisioner reacts to.
const (
	codeNamespaceExists       = 48
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// ErrIndexConflict wraps a server rejection of an index whose name or key is
// already used with different options.
var ErrIndexConflict = errors.New("schema: index conflicts with an existing index")

// ExistingIndex is what the server reports for an index.
type ExistingIndex struct {
	Name               string
	Fields             []string
	Unique             bool
	ExpireAfterSeconds *int64
}

// On reports whether the index is a single-field index on field.
func (e ExistingIndex) On(field string) bool {
	return len(e.Fields) == 1 && e.Fields[0] == field
}

// Admin is the administrative surface the provisioner needs.
type Admin interface {
	ListCollectionNames(ctx context.Context) ([]string, error)
	// CreateCollection must succeed when the collection already exists.
	CreateCollection(ctx context.Context, name string) error
	ListIndexes(ctx context.Context, collection string) ([]ExistingIndex, error)
	CreateIndex(ctx context.Context, collection string, idx Index) error
	// SetExpireAfter changes the TTL of an existing index on idx.Field in place.
	SetExpireAfter(ctx context.Context, collection string, idx Index) error
}

// MongoAdmin implements Admin on a *mongo.Database.
type MongoAdmin struct {
	db *mongo.Database
}

func NewMongoAdmin(db *mongo.Database) *MongoAdmin {
	return &MongoAdmin{db: db}
}

func (a *MongoAdmin) ListCollectionNames(ctx context.Context) ([]string, error) {
	names, err := a.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections in %s: %w", a.db.Name(), err)
	}
	return names, nil
}

func (a *MongoAdmin) CreateCollection(ctx context.Context, name string) error {
	err := a.db.CreateCollection(ctx, name)
	if err != nil && !hasCode(err, codeNamespaceExists) {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

type indexSpec struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             bool   `bson:"unique,omitempty"`
	ExpireAfterSeconds *int64 `bson:"expireAfterSeconds,omitempty"`
}

func (a *MongoAdmin) ListIndexes(ctx context.Context, collection string) ([]ExistingIndex, error) {
	cur, err := a.db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes of %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	out := []ExistingIndex{}
	for cur.Next(ctx) {
		var spec indexSpec
		if err := cur.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode index of %s: %w", collection, err)
		}
		fields := make([]string, 0, len(spec.Key))
		for _, k := range spec.Key {
			fields = append(fields, k.Key)
		}
		out = append(out, ExistingIndex{
			Name:               spec.Name,
			Fields:             fields,
			Unique:             spec.Unique,
			ExpireAfterSeconds: spec.ExpireAfterSeconds,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes of %s: %w", collection, err)
	}
	return out, nil
}

func (a *MongoAdmin) CreateIndex(ctx context.Context, collection string, idx Index) error {
	opts := options.Index().SetName(idx.Name)
	if idx.Unique {
		opts.SetUnique(true)
	}
	if idx.TTL() {
		opts.SetExpireAfterSeconds(idx.ExpireAfterSeconds())
	}
	model := mongo.IndexModel{Keys: bson.D{{Key: idx.Field, Value: 1}}, Options: opts}
	if _, err := a.db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		if hasCode(err, codeIndexOptionsConflict) || hasCode(err, codeIndexKeySpecsConflict) {
			return fmt.Errorf("%w: %s.%s: %v", ErrIndexConflict, collection, idx.Name, err)
		}
		return fmt.Errorf("create index %s.%s: %w", collection, idx.Name, err)
	}
	return nil
}

func (a *MongoAdmin) SetExpireAfter(ctx context.Context, collection string, idx Index) error {
	cmd := bson.D{
		{Key: "collMod", Value: collection},
		{Key: "index", Value: bson.D{
			{Key: "keyPattern", Value: bson.D{{Key: idx.Field, Value: 1}}},
			{Key: "expireAfterSeconds", Value: int64(idx.ExpireAfterSeconds())},
		}},
	}
	if err := a.db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("collMod %s.%s: %w", collection, idx.Name, err)
	}
	return nil
}

func hasCode(err error, code int) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(code)
}
