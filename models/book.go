package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Book struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Author      string             `bson:"author" json:"author"`
	Description string             `bson:"description" json:"description"`
	// AverageRating and RatingCount are written only by service.Ratings.
	// Both stay zero (and are omitted from JSON) while the book has no
	// reviews, so a client never sees a computed average of an empty set.
	AverageRating float64   `bson:"averageRating,omitempty" json:"averageRating,omitempty"`
	RatingCount   int       `bson:"ratingCount,omitempty" json:"ratingCount,omitempty"`
	CoverKey      string    `bson:"coverKey,omitempty" json:"-"` // object key in S3
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
