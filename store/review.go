package store

import (
	"context"
	"time"

	"github.com/adamkovacs/bookreviews/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	res, err := db.Reviews().InsertOne(ctx, review, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ReviewsByBook(ctx context.Context, bookID primitive.ObjectID) ([]models.Review, error) {
	cur, err := db.Reviews().Find(ctx, bson.M{"bookId": bookID}, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ReviewPatch holds the mutable review fields; nil means "leave as is".
// BookID and UserID are immutable and have no patch entry.
type ReviewPatch struct {
	Rating *int
	Text   *string
}

// UpdateOwnedReview applies the patch to the review only when it exists and
// is owned by userID, returning the updated document. Returns nil for both
// "no such review" and "not the owner" so callers cannot distinguish them.
func (db *DB) UpdateOwnedReview(ctx context.Context, id, userID primitive.ObjectID, patch ReviewPatch) (*models.Review, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	if patch.Text != nil {
		set["text"] = *patch.Text
	}
	var review models.Review
	err := db.Reviews().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteOwnedReview removes the review only when it exists and is owned by
// userID, returning the deleted document with the same opaque nil as
// UpdateOwnedReview otherwise.
func (db *DB) DeleteOwnedReview(ctx context.Context, id, userID primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	err := db.Reviews().FindOneAndDelete(ctx, bson.M{"_id": id, "userId": userID}).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReviewsByBook removes every review of a book; used when the book
// itself is deleted.
func (db *DB) DeleteReviewsByBook(ctx context.Context, bookID primitive.ObjectID) error {
	_, err := db.Reviews().DeleteMany(ctx, bson.M{"bookId": bookID})
	return err
}

// RatingsByBook loads just the rating values of a book's reviews, the input
// of the average recompute.
func (db *DB) RatingsByBook(ctx context.Context, bookID primitive.ObjectID) ([]int, error) {
	cur, err := db.Reviews().Find(ctx, bson.M{"bookId": bookID},
		options.Find().SetProjection(bson.M{"rating": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []struct {
		Rating int `bson:"rating"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ratings := make([]int, len(docs))
	for i, d := range docs {
		ratings[i] = d.Rating
	}
	return ratings, nil
}
