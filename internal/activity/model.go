package activity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storefronthq/storefront-backend/pkg/enums"
)

// Entry is one activity log document.
type Entry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Type        enums.ActivityType `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ListQuery filters the admin activity listing.
type ListQuery struct {
	UserID string
	Type   enums.ActivityType
	Page   int
	Limit  int
}
