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

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) AllBooks(ctx context.Context) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// BookPatch holds the client-writable book fields; nil means "leave as is".
// The rating aggregate fields are deliberately not here.
type BookPatch struct {
	Title       *string
	Author      *string
	Description *string
}

// UpdateBook applies the supplied fields to a book and returns the updated
// document, or nil when the book does not exist.
func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, patch BookPatch) (*models.Book, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Author != nil {
		set["author"] = *patch.Author
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	var book models.Book
	err := db.Books().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book and returns the deleted document (for cover
// cleanup), or nil when it did not exist.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// SetBookRating overwrites the book's rating aggregate wholesale. Only the
// rating aggregator calls this.
func (db *DB) SetBookRating(ctx context.Context, id primitive.ObjectID, average float64, count int) error {
	_, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"averageRating": average, "ratingCount": count},
	})
	return err
}

// SetBookCover records the S3 object key of the book's cover image.
func (db *DB) SetBookCover(ctx context.Context, id primitive.ObjectID, coverKey string) error {
	_, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"coverKey": coverKey},
	})
	return err
}
