package enums

import "fmt"

// ActivityType classifies entries in the user activity log.
type ActivityType string

const (
	ActivityLogin          ActivityType = "login"
	ActivityLogout         ActivityType = "logout"
	ActivitySignup         ActivityType = "signup"
	ActivityPurchase       ActivityType = "purchase"
	ActivityReview         ActivityType = "review"
	ActivityAddToCart      ActivityType = "add_to_cart"
	ActivityWishlist       ActivityType = "wishlist"
	ActivityUpdateProfile  ActivityType = "update_profile"
	ActivityChangePassword ActivityType = "change_password"
	ActivityOther          ActivityType = "other"
)

var validActivityTypes = []ActivityType{
	ActivityLogin,
	ActivityLogout,
	ActivitySignup,
	ActivityPurchase,
	ActivityReview,
	ActivityAddToCart,
	ActivityWishlist,
	ActivityUpdateProfile,
	ActivityChangePassword,
	ActivityOther,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
