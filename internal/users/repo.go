package users

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

// Repository is the Mongo-backed user store.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{collection: client.Collection(db.CollectionUsers)}
}

func (r *Repository) Insert(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = normalizeEmail(user.Email)

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var user User
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
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

func (r *Repository) UpdateFields(ctx context.Context, id string, set map[string]any) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	fields := bson.M{"updated_at": time.Now().UTC()}
	for key, value := range set {
		if key == "email" {
			if email, ok := value.(string); ok {
				value = normalizeEmail(email)
			}
		}
		fields[key] = value
	}

	result, err := r.collection.UpdateByID(ctx, oid, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *Repository) AddAddress(ctx context.Context, userID string, address Address) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$push": bson.M{"addresses": address},
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

func (r *Repository) UpdateAddress(ctx context.Context, userID string, address Address) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	filter := bson.M{"_id": oid, "addresses.id": address.ID}
	update := bson.M{
		"$set": bson.M{
			"addresses.$": address,
			"updated_at":  time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *Repository) RemoveAddress(ctx context.Context, userID, addressID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$pull": bson.M{"addresses": bson.M{"id": addressID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	if result.ModifiedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *Repository) UpsertCartLine(ctx context.Context, userID string, line CartLine) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	// Try the in-place quantity update first; fall back to a push for a
	// product not yet in the cart.
	filter := bson.M{"_id": oid, "cart.product_id": line.ProductID}
	update := bson.M{
		"$set": bson.M{
			"cart.$.quantity": line.Quantity,
			"updated_at":      time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}

	push := bson.M{
		"$push": bson.M{"cart": line},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	pushResult, err := r.collection.UpdateByID(ctx, oid, push)
	if err != nil {
		return err
	}
	if pushResult.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *Repository) SetCartQuantity(ctx context.Context, userID, productID string, quantity int64) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	filter := bson.M{"_id": oid, "cart.product_id": productID}
	update := bson.M{
		"$set": bson.M{
			"cart.$.quantity": quantity,
			"updated_at":      time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *Repository) RemoveCartLine(ctx context.Context, userID, productID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$pull": bson.M{"cart": bson.M{"product_id": productID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	if result.ModifiedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *Repository) ClearCart(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$set": bson.M{"cart": []CartLine{}, "updated_at": time.Now().UTC()},
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

func (r *Repository) AddWishlistItem(ctx context.Context, userID, productID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, mongo.ErrNoDocuments
	}

	update := bson.M{
		"$addToSet": bson.M{"wishlist": productID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		return false, mongo.ErrNoDocuments
	}
	return result.ModifiedCount > 0, nil
}

func (r *Repository) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$pull": bson.M{"wishlist": productID},
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

func (r *Repository) AppendOrderRef(ctx context.Context, userID, orderID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	update := bson.M{
		"$push": bson.M{"order_ids": orderID},
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

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminRepository is the Mongo-backed staff account store.
type AdminRepository struct {
	collection *mongo.Collection
}

func NewAdminRepository(client *db.Client) *AdminRepository {
	return &AdminRepository{collection: client.Collection(db.CollectionAdmins)}
}

func (r *AdminRepository) FindByID(ctx context.Context, id string) (*Admin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var admin Admin
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	var admin Admin
	err := r.collection.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&admin)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
