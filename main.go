package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adamkovacs/bookreviews/config"
	"github.com/adamkovacs/bookreviews/handlers"
	"github.com/adamkovacs/bookreviews/logger"
	"github.com/adamkovacs/bookreviews/middleware"
	"github.com/adamkovacs/bookreviews/service"
	"github.com/adamkovacs/bookreviews/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Error("mongodb connect", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Error("mongodb disconnect", slog.String("error", err.Error()))
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Error("mongodb indexes", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("connected to mongodb", slog.String("db", cfg.DBName))

	var covers *service.Covers
	if cfg.S3Bucket != "" {
		covers, err = service.NewCovers(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Error("s3", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		log.Warn("AWS_S3_BUCKET not set; cover uploads disabled")
	}

	tokens := service.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	ratings := service.NewRatings(db, db, log)
	reviews := service.NewReviews(db, db, db, ratings, log)

	authHandler := &handlers.AuthHandler{Users: db, Tokens: tokens, Log: log}
	booksHandler := &handlers.BooksHandler{Books: db, Reviews: db, Covers: covers, Log: log}
	reviewsHandler := &handlers.ReviewsHandler{Reviews: reviews, Log: log}
	coversHandler := &handlers.CoversHandler{
		Books:    db,
		Covers:   covers,
		MaxBytes: cfg.MaxUploadMB * 1024 * 1024,
		Log:      log,
	}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Get("/me", authHandler.Me)
		})
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", booksHandler.List)
		r.Get("/{id}", booksHandler.Get)
		r.Get("/{id}/cover", coversHandler.Get)
		r.Get("/{id}/reviews", reviewsHandler.ListByBook)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Post("/", booksHandler.Create)
			r.Patch("/{id}", booksHandler.Update)
			r.Delete("/{id}", booksHandler.Delete)
			r.Post("/{id}/cover", coversHandler.Upload)
			r.Post("/{id}/reviews", reviewsHandler.Create)
			r.Patch("/reviews/{id}", reviewsHandler.Update)
			r.Delete("/reviews/{id}", reviewsHandler.Delete)
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", slog.String("error", err.Error()))
	}
}
