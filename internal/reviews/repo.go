package reviews

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefronthq/storefront-backend/pkg/db"
)

// Repository is the Mongo-backed review store.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{collection: client.Collection(db.CollectionReviews)}
}

func (r *Repository) Insert(ctx context.Context, review *Review) error {
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var review Review
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&review); err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByProduct returns every review for a product; the rating recompute
// consumes the full set.
func (r *Repository) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *Repository) Update(ctx context.Context, id string, rating int, comment string) (*Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	update := bson.M{"$set": bson.M{
		"rating":     rating,
		"comment":    comment,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var review Review
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
