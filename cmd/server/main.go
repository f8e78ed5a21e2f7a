package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stockroom/backend/internal/config"
	"github.com/stockroom/backend/internal/handlers"
	"github.com/stockroom/backend/internal/services"
)

func main() {
	cfg := config.Load()

	imageStore, err := services.NewImageStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// A failed Mongo connection is not fatal: the server stays up on the
	// volatile in-memory repository.
	var repo services.ItemRepository
	if cfg.MongoURI == "" {
		log.Println("MONGO_URI not set, using in-memory item store")
		repo = services.NewMemoryItemRepository()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := services.NewMongoItemRepository(ctx, cfg.MongoURI, cfg.MongoDB)
		cancel()
		if err != nil {
			log.Printf("MongoDB connection failed: %v (falling back to in-memory store)", err)
			repo = services.NewMemoryItemRepository()
		} else {
			repo = mongoRepo
		}
	}

	// Initialize service and handler
	itemService := services.NewItemService(repo, imageStore)
	itemHandler := handlers.NewItemHandler(itemService, cfg.MaxUploadSizeMB)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Item routes
	r.Get("/items", itemHandler.ListItems)
	r.Get("/items/{itemId}", itemHandler.GetItem)
	r.Post("/items", itemHandler.CreateItem)
	r.Put("/update-items/{itemId}", itemHandler.UpdateItem)
	r.Delete("/delete-items/{itemId}", itemHandler.DeleteItem)

	// Serve uploaded files
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	log.Printf("Inventory API server starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
