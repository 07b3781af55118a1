package products

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefronthq/storefront-backend/pkg/db"
)

// Repository is the Mongo-backed catalog store.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository binds the repository to the products collection.
func NewRepository(client *db.Client) *Repository {
	return &Repository{collection: client.Collection(db.CollectionProducts)}
}

func (r *Repository) Insert(ctx context.Context, product *Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var product Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) Search(ctx context.Context, query SearchQuery) ([]Product, error) {
	filter := bson.M{}
	if query.Name != "" {
		filter["name"] = bson.M{"$regex": query.Name, "$options": "i"}
	}
	if query.Category != "" {
		filter["category"] = query.Category
	}
	price := bson.M{}
	if query.MinPriceCents > 0 {
		price["$gte"] = query.MinPriceCents
	}
	if query.MaxPriceCents > 0 {
		price["$lte"] = query.MaxPriceCents
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}
	if len(query.Sizes) > 0 {
		filter["sizes"] = bson.M{"$in": query.Sizes}
	}
	if len(query.Colors) > 0 {
		filter["colors"] = bson.M{"$in": query.Colors}
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

	products := []Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) Update(ctx context.Context, id string, set map[string]any) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	fields := bson.M{"updated_at": time.Now().UTC()}
	for key, value := range set {
		fields[key] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product Product
	err = r.collection.
		FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}, opts).
		Decode(&product)
	if err != nil {
		return nil, err
	}
	return &product, nil
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

func (r *Repository) AppendImageURL(ctx context.Context, id, url string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$push": bson.M{"image_urls": url},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DecrementStock is the conditional write the order engine relies on: the
// stock floor is part of the filter, so check and decrement are one
// document operation.
func (r *Repository) DecrementStock(ctx context.Context, id string, qty int64) (bool, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, false, nil
	}

	filter := bson.M{"_id": oid, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, false, err
	}
	if result.MatchedCount > 0 {
		return true, true, nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, false, err
	}
	return count > 0, false, nil
}

func (r *Repository) IncrementStock(ctx context.Context, id string, qty int64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *Repository) SetRating(ctx context.Context, id string, rating Rating) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$set": bson.M{"rating": rating, "updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
