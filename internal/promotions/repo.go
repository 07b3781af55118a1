package promotions

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefronthq/storefront-backend/pkg/db"
)

// Repository is the Mongo-backed promotion store.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{collection: client.Collection(db.CollectionPromotions)}
}

func (r *Repository) Insert(ctx context.Context, promo *Promotion) error {
	now := time.Now().UTC()
	promo.CreatedAt = now
	promo.UpdatedAt = now
	promo.Code = normalizeCode(promo.Code)

	result, err := r.collection.InsertOne(ctx, promo)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		promo.ID = oid
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Promotion, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var promo Promotion
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&promo); err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*Promotion, error) {
	var promo Promotion
	err := r.collection.FindOne(ctx, bson.M{"code": normalizeCode(code)}).Decode(&promo)
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]Promotion, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	promos := []Promotion{}
	if err := cursor.All(ctx, &promos); err != nil {
		return nil, err
	}
	return promos, nil
}

func (r *Repository) Update(ctx context.Context, id string, set map[string]any) (*Promotion, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	fields := bson.M{"updated_at": time.Now().UTC()}
	for key, value := range set {
		fields[key] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var promo Promotion
	err = r.collection.
		FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}, opts).
		Decode(&promo)
	if err != nil {
		return nil, err
	}
	return &promo, nil
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

// ApplyAtomically performs the single conditional write that is the
// concurrency barrier at the usage-limit boundary: window and remaining
// usage are part of the filter, the increment is the update.
func (r *Repository) ApplyAtomically(ctx context.Context, code string, now time.Time) (*Promotion, error) {
	filter := bson.M{
		"code":       normalizeCode(code),
		"valid_from": bson.M{"$lte": now},
		"valid_to":   bson.M{"$gte": now},
		"$or": bson.A{
			bson.M{"usage_limit": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usage_count", "$usage_limit"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var promo Promotion
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&promo); err != nil {
		return nil, err
	}
	return &promo, nil
}

// ReleaseUsage decrements usage_count by one. The count is part of the
// filter so a release can never push it below zero.
func (r *Repository) ReleaseUsage(ctx context.Context, code string) error {
	filter := bson.M{
		"code":        normalizeCode(code),
		"usage_count": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"usage_count": -1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
