package orders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/enums"
)

// Repository is the Mongo-backed order store.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{collection: client.Collection(db.CollectionOrders)}
}

func (r *Repository) Insert(ctx context.Context, order *Order) error {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var order Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, page, limit int) ([]Order, error) {
	return r.list(ctx, bson.M{"user_id": userID}, page, limit)
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]Order, error) {
	return r.list(ctx, bson.M{}, page, limit)
}

func (r *Repository) list(ctx context.Context, filter bson.M, page, limit int) ([]Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionStatus is a compare-and-swap: the source status is part of the
// filter, so a raced transition misses instead of double-applying.
func (r *Repository) TransitionStatus(ctx context.Context, id string, from, to enums.OrderStatus) (*Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	filter := bson.M{"_id": oid, "status": from}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order Order
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
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

// SalesReport runs one aggregation over the orders collection. Cancelled
// orders count toward totals-by-status but not revenue.
func (r *Repository) SalesReport(ctx context.Context) (*SalesReport, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"total": bson.A{
				bson.M{"$count": "count"},
			},
			"revenue": bson.A{
				bson.M{"$match": bson.M{"status": bson.M{"$ne": enums.OrderStatusCancelled}}},
				bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$total_cents"}}},
			},
			"by_status": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
			},
			"top_products": bson.A{
				bson.M{"$match": bson.M{"status": bson.M{"$ne": enums.OrderStatusCancelled}}},
				bson.M{"$unwind": "$lines"},
				bson.M{"$group": bson.M{
					"_id":      "$lines.product_id",
					"name":     bson.M{"$last": "$lines.name"},
					"quantity": bson.M{"$sum": "$lines.quantity"},
				}},
				bson.M{"$sort": bson.M{"quantity": -1}},
				bson.M{"$limit": 5},
			},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raw []struct {
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
		Revenue []struct {
			Total int64 `bson:"total"`
		} `bson:"revenue"`
		ByStatus []struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		} `bson:"by_status"`
		TopProducts []ProductSales `bson:"top_products"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}

	report := &SalesReport{
		OrdersByStatus: map[string]int64{},
		TopProducts:    []ProductSales{},
	}
	if len(raw) == 0 {
		return report, nil
	}
	facets := raw[0]
	if len(facets.Total) > 0 {
		report.TotalOrders = facets.Total[0].Count
	}
	if len(facets.Revenue) > 0 {
		report.RevenueCents = facets.Revenue[0].Total
	}
	for _, row := range facets.ByStatus {
		report.OrdersByStatus[row.Status] = row.Count
	}
	report.TopProducts = facets.TopProducts
	return report, nil
}
