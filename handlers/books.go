package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamkovacs/bookreviews/errs"
	"github.com/adamkovacs/bookreviews/models"
	"github.com/adamkovacs/bookreviews/service"
	"github.com/adamkovacs/bookreviews/store"
	"github.com/adamkovacs/bookreviews/utils"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookStore is the book persistence surface the catalog handlers need.
type BookStore interface {
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	AllBooks(ctx context.Context) ([]models.Book, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	UpdateBook(ctx context.Context, id primitive.ObjectID, patch store.BookPatch) (*models.Book, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
}

// ReviewSweeper removes every review of a book when the book goes away.
type ReviewSweeper interface {
	DeleteReviewsByBook(ctx context.Context, bookID primitive.ObjectID) error
}

type BooksHandler struct {
	Books   BookStore
	Reviews ReviewSweeper
	Covers  *service.Covers // nil when cover storage is not configured
	Log     *slog.Logger
}

type CreateBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type UpdateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Description *string `json:"description"`
}

func bookIDParam(r *http.Request, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		return primitive.NilObjectID, errs.NotFound("book")
	}
	return id, nil
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	now := time.Now().UTC()
	book := &models.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := h.Books.InsertBook(r.Context(), book)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	book.ID = id
	utils.RespondJSON(w, http.StatusCreated, book)
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.Books.AllBooks(r.Context())
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	utils.RespondJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r, "id")
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	book, err := h.Books.BookByID(r.Context(), id)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if book == nil {
		utils.RespondError(w, r, errs.NotFound("book"), h.Log)
		return
	}
	utils.RespondJSON(w, http.StatusOK, book)
}

// Update merges the supplied fields into the book; absent fields are left
// untouched. The rating aggregate is not client-writable.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r, "id")
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	var req UpdateBookRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	book, err := h.Books.UpdateBook(r.Context(), id, store.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
	})
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if book == nil {
		utils.RespondError(w, r, errs.NotFound("book"), h.Log)
		return
	}
	utils.RespondJSON(w, http.StatusOK, book)
}

// Delete removes the book together with its reviews and stored cover.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r, "id")
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	book, err := h.Books.DeleteBook(r.Context(), id)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if book == nil {
		utils.RespondError(w, r, errs.NotFound("book"), h.Log)
		return
	}
	if err := h.Reviews.DeleteReviewsByBook(r.Context(), id); err != nil {
		h.Log.ErrorContext(r.Context(), "delete reviews of removed book",
			slog.String("bookId", id.Hex()),
			slog.String("error", err.Error()),
		)
	}
	if h.Covers != nil && book.CoverKey != "" {
		if err := h.Covers.Delete(r.Context(), book.CoverKey); err != nil {
			h.Log.ErrorContext(r.Context(), "delete cover of removed book",
				slog.String("bookId", id.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}
