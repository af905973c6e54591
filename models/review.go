package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookID primitive.ObjectID `bson:"bookId" json:"bookId"`
	// UserID is the authenticated creator and never changes afterwards.
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Rating    int                `bson:"rating" json:"rating"` // 1..5
	Text      string             `bson:"text" json:"text"`     // at least 5 characters
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ReviewWithUser is a review joined with the reviewer's displayable identity
// for listing.
type ReviewWithUser struct {
	Review
	Username string `json:"username"`
}
