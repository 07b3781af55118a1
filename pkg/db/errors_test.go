package db

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsDup(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
	if !IsDup(dup) {
		t.Fatal("expected duplicate key error to be detected")
	}
	if IsDup(errors.New("connection reset")) {
		t.Fatal("plain error should not be a duplicate")
	}
	if IsDup(nil) {
		t.Fatal("nil should not be a duplicate")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(mongo.ErrNoDocuments) {
		t.Fatal("expected ErrNoDocuments to be detected")
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatal("plain error should not be not-found")
	}
}
