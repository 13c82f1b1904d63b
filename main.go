package main

import (
	"context"
	"embed"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"momentumAPI/handlers"
	"momentumAPI/internal/clock"
	"momentumAPI/internal/notification"
	"momentumAPI/internal/store"
	"momentumAPI/middleware"
	"momentumAPI/services"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const defaultFreeTierLimit = 3

var (
	dbPool              *pgxpool.Pool
	dataStore           store.Store
	userService         *services.UserService
	challengeService    *services.ChallengeService
	verificationService *services.VerificationService
	leaderboardService  *services.LeaderboardService
	healthService       *services.HealthService
	eventDispatcher     *services.EventDispatcher
	sweeper             *services.Sweeper
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}
	log.Println("Successfully connected to Postgres")

	if err := runMigrations(dbURL); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	freeTierLimit := defaultFreeTierLimit
	if v := os.Getenv("FREE_TIER_CHALLENGE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			freeTierLimit = n
		}
	}

	clk := clock.SystemClock{}
	dataStore = store.NewPostgresStore(dbPool)

	eventDispatcher = services.NewEventDispatcher(dataStore)
	userService = services.NewUserService(dataStore)
	challengeService = services.NewChallengeService(dataStore, clk, freeTierLimit)
	healthService = services.NewHealthService(dataStore)
	verificationService = services.NewVerificationService(dataStore, healthService, clk, eventDispatcher)
	leaderboardService = services.NewLeaderboardService(dataStore)
	sweeper = services.NewSweeper(dataStore, clk, eventDispatcher)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		eventDispatcher.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	if err := services.SeedOfficialChallenges(ctx, dataStore, clk); err != nil {
		log.Printf("Warning: Could not seed official challenges: %v", err)
	}

	middleware.InitPrometheus()
}

func runMigrations(dbURL string) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	log.Println("Database migrations applied")
	return nil
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	activityHandler := handlers.NewActivityHandler(dataStore)
	healthHandler := handlers.NewHealthHandler(healthService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "momentum-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")
	r.HandleFunc("/webhooks/stripe", webhookHandler.HandleStripeWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetMe).Methods("GET")
	protected.HandleFunc("/user/timezone", userHandler.UpdateTimezone).Methods("PUT")
	protected.HandleFunc("/user/device", userHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	protected.HandleFunc("/challenges", challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{id}", challengeHandler.GetChallenge).Methods("GET")
	protected.HandleFunc("/challenges/{id}/join", challengeHandler.JoinChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{id}/join", challengeHandler.LeaveChallenge).Methods("DELETE")
	protected.HandleFunc("/challenges/{id}/invite", challengeHandler.GetInvite).Methods("GET")
	protected.HandleFunc("/challenges/{id}/verify", verificationHandler.VerifyToday).Methods("POST")
	protected.HandleFunc("/challenges/{id}/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/activity", activityHandler.GetRecentActivities).Methods("GET")
	protected.HandleFunc("/health/sync", healthHandler.SyncSamples).Methods("POST")

	sweeper.Start()

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	sweeper.Stop()
	eventDispatcher.Stop()

	log.Println("Server shutdown complete")
}
