package activity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefronthq/storefront-backend/pkg/db"
)

// Repository is the Mongo-backed activity log store.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{collection: client.Collection(db.CollectionActivityLogs)}
}

func (r *Repository) Insert(ctx context.Context, entry *Entry) error {
	entry.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *Repository) List(ctx context.Context, query ListQuery) ([]Entry, error) {
	filter := bson.M{}
	if query.UserID != "" {
		filter["user_id"] = query.UserID
	}
	if query.Type != "" {
		filter["type"] = query.Type
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((query.Page - 1) * query.Limit)).
		SetLimit(int64(query.Limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
