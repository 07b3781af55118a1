package promotions

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storefronthq/storefront-backend/pkg/enums"
)

// Promotion is a discount code document. UsageLimit zero means unlimited;
// UsageCount only ever moves through the conditional apply write.
type Promotion struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code        string             `bson:"code" json:"code"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        enums.DiscountType `bson:"type" json:"type"`
	Value       int64              `bson:"value" json:"value"`
	ValidFrom   time.Time          `bson:"valid_from" json:"valid_from"`
	ValidTo     time.Time          `bson:"valid_to" json:"valid_to"`
	UsageLimit  int64              `bson:"usage_limit" json:"usage_limit"`
	UsageCount  int64              `bson:"usage_count" json:"usage_count"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// DiscountCents computes the discount for a subtotal, clamped so the total
// never goes negative.
func (p *Promotion) DiscountCents(subtotalCents int64) int64 {
	var discount int64
	switch p.Type {
	case enums.DiscountTypePercentage:
		discount = subtotalCents * p.Value / 100
	case enums.DiscountTypeFixed:
		discount = p.Value
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// CreatePromotionInput carries admin-supplied fields for a new code.
type CreatePromotionInput struct {
	Code        string    `json:"code" validate:"required,min=2,max=40"`
	Description string    `json:"description" validate:"max=500"`
	Type        string    `json:"type" validate:"required,oneof=percentage fixed"`
	Value       int64     `json:"value" validate:"gte=0"`
	ValidFrom   time.Time `json:"valid_from" validate:"required"`
	ValidTo     time.Time `json:"valid_to" validate:"required"`
	UsageLimit  int64     `json:"usage_limit" validate:"gte=0"`
}

// UpdatePromotionInput carries partial updates; nil fields are untouched.
type UpdatePromotionInput struct {
	Description *string    `json:"description" validate:"omitempty,max=500"`
	Value       *int64     `json:"value" validate:"omitempty,gte=0"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidTo     *time.Time `json:"valid_to"`
	UsageLimit  *int64     `json:"usage_limit" validate:"omitempty,gte=0"`
}

// AppliedPromotion is the apply result handed to the order engine.
type AppliedPromotion struct {
	Code  string             `json:"code"`
	Type  enums.DiscountType `json:"type"`
	Value int64              `json:"value"`
}

// DiscountCents applies the discount to a subtotal with the same clamping
// rules as the stored promotion.
func (p *AppliedPromotion) DiscountCents(subtotalCents int64) int64 {
	promo := Promotion{Type: p.Type, Value: p.Value}
	return promo.DiscountCents(subtotalCents)
}
