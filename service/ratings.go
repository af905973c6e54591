package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingSource loads the rating values currently attached to a book.
type RatingSource interface {
	RatingsByBook(ctx context.Context, bookID primitive.ObjectID) ([]int, error)
}

// RatingSink overwrites a book's stored rating aggregate.
type RatingSink interface {
	SetBookRating(ctx context.Context, bookID primitive.ObjectID, average float64, count int) error
}

// Ratings keeps each book's averageRating equal to the arithmetic mean of
// its reviews' ratings. Recompute reads the full review set and overwrites
// the aggregate wholesale; with zero reviews the aggregate is reset to
// zero rather than computed, so there is no division by an empty set.
//
// Mutations for one book are serialized through a per-book lock, which
// closes the lost-update race between concurrent review writes and their
// recomputes without requiring store transactions.
type Ratings struct {
	source RatingSource
	sink   RatingSink
	log    *slog.Logger

	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

func NewRatings(source RatingSource, sink RatingSink, log *slog.Logger) *Ratings {
	return &Ratings{
		source: source,
		sink:   sink,
		log:    log,
		locks:  make(map[primitive.ObjectID]*sync.Mutex),
	}
}

func (r *Ratings) bookLock(bookID primitive.ObjectID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[bookID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[bookID] = l
	}
	return l
}

// WithBookLock runs fn while holding the book's lock, so a review mutation
// and the recompute that follows it observe a consistent review set.
func (r *Ratings) WithBookLock(bookID primitive.ObjectID, fn func() error) error {
	l := r.bookLock(bookID)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// Recompute recalculates and persists the book's rating aggregate from the
// full review set. Callers mutating reviews should do so inside
// WithBookLock and call Recompute before releasing it.
func (r *Ratings) Recompute(ctx context.Context, bookID primitive.ObjectID) error {
	ratings, err := r.source.RatingsByBook(ctx, bookID)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	average := Mean(ratings)
	if err := r.sink.SetBookRating(ctx, bookID, average, len(ratings)); err != nil {
		return fmt.Errorf("store rating aggregate: %w", err)
	}
	r.log.DebugContext(ctx, "rating recomputed",
		slog.String("bookId", bookID.Hex()),
		slog.Float64("average", average),
		slog.Int("count", len(ratings)),
	)
	return nil
}

// Mean returns the arithmetic mean of ratings, 0 for an empty set.
func Mean(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, v := range ratings {
		sum += v
	}
	return float64(sum) / float64(len(ratings))
}
