// Package mongo stores users and posts as documents in MongoDB, in the
// "users" and "posts" collections. Posts reference their creator by the
// user's ObjectID and users keep an ordered array of owned post ids.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/postfeed/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	postsCollection = "posts"
)

// DB is a connected MongoDB database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ domain.Database = (*DB)(nil)

// Connect dials uri and verifies the primary is reachable.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &DB{client: client, db: client.Database(database)}, nil
}

// Migrate creates the indexes the repositories rely on. Creating an index
// that already exists is a no-op, so this is safe on every start.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = d.db.Collection(postsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "imageUrl", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create posts indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (d *DB) Close() error {
	return d.client.Disconnect(context.Background())
}

// Users returns the user repository.
func (d *DB) Users() domain.UserRepository {
	return &UserRepository{coll: d.db.Collection(usersCollection)}
}

// Posts returns the post repository.
func (d *DB) Posts() domain.PostRepository {
	return &PostRepository{coll: d.db.Collection(postsCollection)}
}

// Drop removes both collections. Used by tests against a scratch database.
func (d *DB) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

// objectID parses a hex id. Malformed ids cannot match any document, so they
// are reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}
