package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/adamkovacs/bookreviews/errs"
	"github.com/adamkovacs/bookreviews/middleware"
	"github.com/adamkovacs/bookreviews/models"
	"github.com/adamkovacs/bookreviews/service"
	"github.com/adamkovacs/bookreviews/store"
	"github.com/adamkovacs/bookreviews/utils"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewsHandler struct {
	Reviews *service.Reviews
	Log     *slog.Logger
}

type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

type UpdateReviewRequest struct {
	Rating *int    `json:"rating"`
	Text   *string `json:"text"`
}

// Create posts a review for a book on behalf of the authenticated caller.
// Rating and text bounds are enforced by the review service before anything
// is persisted.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, r, errs.Unauthenticated("unauthenticated"), h.Log)
		return
	}
	bookID, err := bookIDParam(r, "id")
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, r, errs.Validation("invalid json body"), h.Log)
		return
	}
	review, err := h.Reviews.Create(r.Context(), bookID, callerID, req.Rating, req.Text)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, review)
}

// ListByBook returns the book's reviews with reviewer usernames joined.
func (h *ReviewsHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := bookIDParam(r, "id")
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	reviews, err := h.Reviews.ListByBook(r.Context(), bookID)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if reviews == nil {
		reviews = []models.ReviewWithUser{}
	}
	utils.RespondJSON(w, http.StatusOK, reviews)
}

func reviewIDParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, errs.ReviewNotFound()
	}
	return id, nil
}

func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, r, errs.Unauthenticated("unauthenticated"), h.Log)
		return
	}
	reviewID, err := reviewIDParam(r)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, r, errs.Validation("invalid json body"), h.Log)
		return
	}
	review, err := h.Reviews.Update(r.Context(), reviewID, callerID, store.ReviewPatch{
		Rating: req.Rating,
		Text:   req.Text,
	})
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	utils.RespondJSON(w, http.StatusOK, review)
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, r, errs.Unauthenticated("unauthenticated"), h.Log)
		return
	}
	reviewID, err := reviewIDParam(r)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if err := h.Reviews.Delete(r.Context(), reviewID, callerID); err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}
