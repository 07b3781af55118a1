package db

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsDup reports whether the error is a unique-index violation. Handlers map
// these to a conflict response (duplicate email, promotion code, review).
func IsDup(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, writeErr := range we.WriteErrors {
			if writeErr.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// IsNotFound reports whether the error means no document matched.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
