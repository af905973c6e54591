package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/adamkovacs/bookreviews/errs"
	"github.com/adamkovacs/bookreviews/models"
	"github.com/adamkovacs/bookreviews/service"
	"github.com/adamkovacs/bookreviews/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const coverURLExpiry = 15 * time.Minute

// CoverBookStore is the slice of book persistence the cover handlers need.
type CoverBookStore interface {
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	SetBookCover(ctx context.Context, id primitive.ObjectID, coverKey string) error
}

type CoversHandler struct {
	Books    CoverBookStore
	Covers   *service.Covers // nil when cover storage is not configured
	MaxBytes int64
	Log      *slog.Logger
}

// Upload stores a cover image for the book, replacing any previous one.
func (h *CoversHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.Covers == nil {
		utils.RespondJSON(w, http.StatusServiceUnavailable,
			utils.ErrorResponse{Error: "cover storage not configured"})
		return
	}
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

	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		utils.RespondError(w, r, errs.Validation("failed to parse multipart form"), h.Log)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, r, errs.Validation("missing file"), h.Log)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.RespondError(w, r, errs.Validation("cover must be an image"), h.Log)
		return
	}

	key, err := h.Covers.Upload(r.Context(), file, contentType)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if err := h.Books.SetBookCover(r.Context(), id, key); err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if book.CoverKey != "" {
		if err := h.Covers.Delete(r.Context(), book.CoverKey); err != nil {
			h.Log.ErrorContext(r.Context(), "delete replaced cover",
				slog.String("bookId", id.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "cover uploaded"})
}

// Get redirects to a short-lived presigned URL for the book's cover.
func (h *CoversHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Covers == nil {
		utils.RespondError(w, r, errs.NotFound("cover"), h.Log)
		return
	}
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
	if book == nil || book.CoverKey == "" {
		utils.RespondError(w, r, errs.NotFound("cover"), h.Log)
		return
	}
	url, err := h.Covers.PresignedGetURL(r.Context(), book.CoverKey, coverURLExpiry)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
