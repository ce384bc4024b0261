package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sundroptea/teahouse-backend/internal/catalog"
	"github.com/sundroptea/teahouse-backend/internal/config"
	"github.com/sundroptea/teahouse-backend/internal/handlers"
	"github.com/sundroptea/teahouse-backend/internal/inventory"
	"github.com/sundroptea/teahouse-backend/internal/loyalty"
	"github.com/sundroptea/teahouse-backend/internal/middleware"
	"github.com/sundroptea/teahouse-backend/internal/service"
	"github.com/sundroptea/teahouse-backend/internal/storage"
	"github.com/sundroptea/teahouse-backend/pkg/logger"
)

// stores bundles the three persistence capabilities behind one value so
// both backends wire identically
type stores struct {
	ledger   storage.LedgerStore
	orders   storage.OrderStore
	profiles storage.ProfileStore
	close    func(context.Context) error
}

func buildStores(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (*stores, error) {
	switch cfg.Backend {
	case "mongo":
		mongoStore, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		log.Info("connected to mongodb", "database", cfg.MongoDB)
		return &stores{
			ledger:   mongoStore,
			orders:   mongoStore,
			profiles: mongoStore,
			close:    mongoStore.Close,
		}, nil
	default:
		memStore := storage.NewMemoryStore()
		memStore.SeedIngredients(storage.DefaultIngredients()...)
		log.Info("using seeded in-memory storage")
		return &stores{
			ledger:   memStore,
			orders:   memStore,
			profiles: memStore,
			close:    func(context.Context) error { return nil },
		}, nil
	}
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting teahouse pos server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"storage_backend", cfg.Storage.Backend,
		"log_level", cfg.LogLevel,
	)

	ctx := context.Background()

	// Initialize storage
	st, err := buildStores(ctx, cfg.Storage, log)
	if err != nil {
		log.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	// Initialize catalog and fulfillment engine
	catalogRepo := catalog.NewInMemoryRepository()
	costTable := catalog.NewCostTable()
	engine := inventory.NewEngine(catalogRepo, costTable, st.ledger, log)
	accruer := loyalty.NewAccruer(st.profiles, log)

	// Initialize services
	productService := service.NewProductService(catalogRepo)
	orderService := service.NewOrderService(catalogRepo, st.orders, st.ledger, engine, accruer, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	productHandler := handlers.NewProductHandler(productService, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Product endpoints
		r.Get("/product", productHandler.ListProducts)
		r.Get("/product/{productId}", productHandler.GetProduct)

		// Order endpoints
		r.Post("/order", orderHandler.CreateOrder)
		r.Post("/order/availability", orderHandler.CheckAvailability)
		r.Get("/order/{orderId}", orderHandler.GetOrder)

		// Staff endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth))
			r.Post("/order/{orderId}/status", orderHandler.TransitionStatus)
		})
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
