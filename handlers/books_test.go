package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/adamkovacs/bookreviews/middleware"
	"github.com/adamkovacs/bookreviews/models"
	"github.com/adamkovacs/bookreviews/service"
	"github.com/adamkovacs/bookreviews/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeBookStore struct {
	mu         sync.Mutex
	books      map[primitive.ObjectID]*models.Book
	sweptBooks []primitive.ObjectID
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{books: make(map[primitive.ObjectID]*models.Book)}
}

func (f *fakeBookStore) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	cp := *book
	cp.ID = id
	f.books[id] = &cp
	return id, nil
}

func (f *fakeBookStore) AllBooks(ctx context.Context) ([]models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Book
	for _, b := range f.books {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBookStore) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookStore) UpdateBook(ctx context.Context, id primitive.ObjectID, patch store.BookPatch) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Author != nil {
		b.Author = *patch.Author
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (f *fakeBookStore) DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	delete(f.books, id)
	cp := *b
	return &cp, nil
}

func (f *fakeBookStore) DeleteReviewsByBook(ctx context.Context, bookID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweptBooks = append(f.sweptBooks, bookID)
	return nil
}

func newBooksRouter(books *fakeBookStore, tokens *service.Tokens) http.Handler {
	h := &BooksHandler{Books: books, Reviews: books, Log: testLogger()}
	r := chi.NewRouter()
	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
	return r
}

func authedRequest(t *testing.T, tokens *service.Tokens, method, path string, body any) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	token, err := tokens.Issue(primitive.NewObjectID())
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateBook_RequiresAuth(t *testing.T) {
	router := newBooksRouter(newFakeBookStore(), testTokens())

	rec := postJSON(t, router, "/books", CreateBookRequest{Title: "1984", Author: "Orwell", Description: "dystopia"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBook_AllFieldsRequired(t *testing.T) {
	tokens := testTokens()
	router := newBooksRouter(newFakeBookStore(), tokens)

	req := authedRequest(t, tokens, http.MethodPost, "/books", map[string]string{"title": "1984", "author": "Orwell"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBook_Succeeds(t *testing.T) {
	tokens := testTokens()
	books := newFakeBookStore()
	router := newBooksRouter(books, tokens)

	req := authedRequest(t, tokens, http.MethodPost, "/books",
		CreateBookRequest{Title: "1984", Author: "Orwell", Description: "dystopia"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var book models.Book
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&book))
	assert.False(t, book.ID.IsZero())
	assert.Equal(t, "1984", book.Title)
	// No reviews yet, so the aggregate fields stay hidden.
	assert.NotContains(t, rec.Body.String(), "averageRating")
}

func TestListBooks_EmptyIsArray(t *testing.T) {
	router := newBooksRouter(newFakeBookStore(), testTokens())

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetBook_NotFound(t *testing.T) {
	router := newBooksRouter(newFakeBookStore(), testTokens())

	req := httptest.NewRequest(http.MethodGet, "/books/"+primitive.NewObjectID().Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A malformed id is just as absent.
	req = httptest.NewRequest(http.MethodGet, "/books/not-an-id", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateBook_PartialMerge(t *testing.T) {
	tokens := testTokens()
	books := newFakeBookStore()
	router := newBooksRouter(books, tokens)

	id, err := books.InsertBook(context.Background(), &models.Book{
		Title:       "1984",
		Author:      "Orwell",
		Description: "dystopia",
	})
	require.NoError(t, err)

	req := authedRequest(t, tokens, http.MethodPatch, "/books/"+id.Hex(),
		map[string]string{"title": "Nineteen Eighty-Four"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var book models.Book
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&book))
	assert.Equal(t, "Nineteen Eighty-Four", book.Title)
	assert.Equal(t, "Orwell", book.Author)
	assert.Equal(t, "dystopia", book.Description)
}

func TestUpdateBook_NotFound(t *testing.T) {
	tokens := testTokens()
	router := newBooksRouter(newFakeBookStore(), tokens)

	req := authedRequest(t, tokens, http.MethodPatch, "/books/"+primitive.NewObjectID().Hex(),
		map[string]string{"title": "anything"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteBook_SweepsReviews(t *testing.T) {
	tokens := testTokens()
	books := newFakeBookStore()
	router := newBooksRouter(books, tokens)

	id, err := books.InsertBook(context.Background(), &models.Book{Title: "1984"})
	require.NoError(t, err)

	req := authedRequest(t, tokens, http.MethodDelete, "/books/"+id.Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []primitive.ObjectID{id}, books.sweptBooks)

	book, err := books.BookByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, book)
}

func TestDeleteBook_NotFound(t *testing.T) {
	tokens := testTokens()
	books := newFakeBookStore()
	router := newBooksRouter(books, tokens)

	req := authedRequest(t, tokens, http.MethodDelete, "/books/"+primitive.NewObjectID().Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, books.sweptBooks)
}
