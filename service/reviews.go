package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamkovacs/bookreviews/errs"
	"github.com/adamkovacs/bookreviews/models"
	"github.com/adamkovacs/bookreviews/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewStore is the persistence surface the review ledger needs.
type ReviewStore interface {
	InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error)
	ReviewsByBook(ctx context.Context, bookID primitive.ObjectID) ([]models.Review, error)
	UpdateOwnedReview(ctx context.Context, id, userID primitive.ObjectID, patch store.ReviewPatch) (*models.Review, error)
	DeleteOwnedReview(ctx context.Context, id, userID primitive.ObjectID) (*models.Review, error)
}

// BookGetter resolves a book id to its document.
type BookGetter interface {
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
}

// UserDirectory resolves user ids to users, for the reviewer-username join.
type UserDirectory interface {
	UsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error)
}

// Reviews owns the review lifecycle and keeps the owning book's rating
// aggregate in step with every mutation. Each mutation runs inside the
// ratings per-book lock together with its recompute.
type Reviews struct {
	store   ReviewStore
	books   BookGetter
	users   UserDirectory
	ratings *Ratings
	log     *slog.Logger
}

func NewReviews(store ReviewStore, books BookGetter, users UserDirectory, ratings *Ratings, log *slog.Logger) *Reviews {
	return &Reviews{store: store, books: books, users: users, ratings: ratings, log: log}
}

const minReviewTextLen = 5

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errs.Validation("rating must be between 1 and 5")
	}
	return nil
}

func validateText(text string) error {
	if len(text) < minReviewTextLen {
		return errs.Validation(fmt.Sprintf("text must be at least %d characters", minReviewTextLen))
	}
	return nil
}

// Create persists a review by callerID for bookID and recomputes the book's
// average before returning. Nothing is persisted when the book is missing
// or the input invalid.
func (s *Reviews) Create(ctx context.Context, bookID, callerID primitive.ObjectID, rating int, text string) (*models.Review, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	var review *models.Review
	err := s.ratings.WithBookLock(bookID, func() error {
		book, err := s.books.BookByID(ctx, bookID)
		if err != nil {
			return fmt.Errorf("load book: %w", err)
		}
		if book == nil {
			return errs.NotFound("book")
		}
		now := time.Now().UTC()
		review = &models.Review{
			BookID:    bookID,
			UserID:    callerID,
			Rating:    rating,
			Text:      text,
			CreatedAt: now,
			UpdatedAt: now,
		}
		id, err := s.store.InsertReview(ctx, review)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		review.ID = id
		return s.ratings.Recompute(ctx, bookID)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "review created",
		slog.String("reviewId", review.ID.Hex()),
		slog.String("bookId", bookID.Hex()),
		slog.String("userId", callerID.Hex()),
	)
	return review, nil
}

// ListByBook returns a book's reviews, each joined with the reviewer's
// username. Reviews whose user no longer exists keep an empty username.
func (s *Reviews) ListByBook(ctx context.Context, bookID primitive.ObjectID) ([]models.ReviewWithUser, error) {
	reviews, err := s.store.ReviewsByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(reviews))
	seen := make(map[primitive.ObjectID]bool, len(reviews))
	for _, r := range reviews {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	users, err := s.users.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load reviewers: %w", err)
	}
	out := make([]models.ReviewWithUser, 0, len(reviews))
	for _, r := range reviews {
		item := models.ReviewWithUser{Review: r}
		if u, ok := users[r.UserID]; ok {
			item.Username = u.Username
		}
		out = append(out, item)
	}
	return out, nil
}

// Update patches rating/text on a review owned by callerID and recomputes
// the book's average. A missing review and a review owned by someone else
// produce the same opaque error.
func (s *Reviews) Update(ctx context.Context, reviewID, callerID primitive.ObjectID, patch store.ReviewPatch) (*models.Review, error) {
	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return nil, err
		}
	}
	if patch.Text != nil {
		if err := validateText(*patch.Text); err != nil {
			return nil, err
		}
	}
	review, err := s.store.UpdateOwnedReview(ctx, reviewID, callerID, patch)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if review == nil {
		return nil, errs.ReviewNotFound()
	}
	if err := s.ratings.WithBookLock(review.BookID, func() error {
		return s.ratings.Recompute(ctx, review.BookID)
	}); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review owned by callerID and recomputes the book's
// average, with the same opaque error as Update on failure.
func (s *Reviews) Delete(ctx context.Context, reviewID, callerID primitive.ObjectID) error {
	review, err := s.store.DeleteOwnedReview(ctx, reviewID, callerID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if review == nil {
		return errs.ReviewNotFound()
	}
	return s.ratings.WithBookLock(review.BookID, func() error {
		return s.ratings.Recompute(ctx, review.BookID)
	})
}
