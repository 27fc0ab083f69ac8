package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh identifier in the document store's format
// (24 lowercase hex characters).
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsID reports whether s has the identifier format. Slugs never do unless
// a title is itself a 24-character hex string, in which case lookup by
// identifier wins.
func IsID(s string) bool {
	return primitive.IsValidObjectID(s)
}
