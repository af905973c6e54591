package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/adamkovacs/bookreviews/errs"
	"github.com/adamkovacs/bookreviews/middleware"
	"github.com/adamkovacs/bookreviews/models"
	"github.com/adamkovacs/bookreviews/service"
	"github.com/adamkovacs/bookreviews/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the user persistence surface the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type AuthHandler struct {
	Users  UserStore
	Tokens *service.Tokens
	Log    *slog.Logger
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Register creates a user, storing only a bcrypt hash of the password.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	username := strings.TrimSpace(req.Username)

	existing, err := h.Users.UserByUsername(r.Context(), username)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if existing != nil {
		utils.RespondError(w, r, errs.DuplicateUsername(username), h.Log)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	user := &models.User{
		Username:  username,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	id, err := h.Users.CreateUser(r.Context(), user)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	user.ID = id

	h.Log.InfoContext(r.Context(), "user registered",
		slog.String("userId", id.Hex()),
		slog.String("username", username),
	)
	utils.RespondJSON(w, http.StatusCreated, user)
}

// Login verifies the credentials and issues a bearer token. Unknown
// username and wrong password are indistinguishable to the caller; the
// bcrypt comparison runs in constant time relative to the hash.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	user, err := h.Users.UserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if user == nil {
		utils.RespondError(w, r, errs.InvalidCredentials(), h.Log)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.RespondError(w, r, errs.InvalidCredentials(), h.Log)
		return
	}
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	utils.RespondJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Me returns the authenticated user, minus the password hash.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, r, errs.Unauthenticated("unauthenticated"), h.Log)
		return
	}
	user, err := h.Users.UserByID(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err, h.Log)
		return
	}
	if user == nil {
		utils.RespondError(w, r, errs.Unauthenticated("unknown user"), h.Log)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}
