//	@title			Clientbook API
//	@version		1.0
//	@description	CRUD backend for customers and users with photo storage in an S3-compatible object store.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**. HTTP Basic credentials are also accepted.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/clientbook/service/internal/auth"
	"github.com/clientbook/service/internal/bootstrap"
	"github.com/clientbook/service/internal/config"
	"github.com/clientbook/service/internal/customer"
	"github.com/clientbook/service/internal/db"
	appMiddleware "github.com/clientbook/service/internal/middleware"
	"github.com/clientbook/service/internal/password"
	"github.com/clientbook/service/internal/photo"
	"github.com/clientbook/service/internal/storage"
	"github.com/clientbook/service/internal/user"

	_ "github.com/clientbook/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store, err := storage.NewMinioStorage(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
		cfg.PresignExpiry,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	// Wire dependencies: repository → service → handler
	hasher := password.NewBcryptHasher(0)

	userRepo := user.NewRepository(pool)
	userSvc := user.NewService(userRepo, hasher)
	userHandler := user.NewHandler(userSvc)

	photoSvc := photo.NewService(store)

	customerRepo := customer.NewRepository(pool)
	customerSvc := customer.NewService(customerRepo, photoSvc)
	customerHandler := customer.NewHandler(customerSvc)

	authSvc := auth.NewService(userSvc, hasher, cfg)
	authHandler := auth.NewHandler(authSvc)

	// Seed admin and provision the bucket before accepting traffic.
	if err := bootstrap.Run(context.Background(), userSvc, store, cfg.SeedAdminUsername); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/v1", func(r chi.Router) {
		// Public auth endpoint
		r.Post("/auth/login", authHandler.Login)

		// Customer endpoints: any authenticated user
		r.Route("/customers", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(authSvc))
			r.Get("/", customerHandler.List)
			r.Post("/", customerHandler.Create)
			r.Get("/{customerID}", customerHandler.GetByID)
			r.Patch("/{customerID}", customerHandler.Patch)
			r.Delete("/{customerID}", customerHandler.Delete)
			r.Post("/{customerID}/photo", customerHandler.AttachPhoto)
		})

		// User endpoints: ADMIN only
		r.Route("/users", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(authSvc))
			r.Use(appMiddleware.RequireAdmin)
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/{userID}", userHandler.GetByID)
			r.Patch("/{userID}", userHandler.Patch)
			r.Delete("/{userID}", userHandler.Delete)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
