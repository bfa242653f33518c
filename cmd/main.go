package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-health/internal/auth"
	"github.com/ukydev/vehicle-health/internal/condition"
	"github.com/ukydev/vehicle-health/internal/config"
	"github.com/ukydev/vehicle-health/internal/db"
	"github.com/ukydev/vehicle-health/internal/handlers"
	"github.com/ukydev/vehicle-health/internal/middleware"
	"github.com/ukydev/vehicle-health/internal/models"
	"github.com/ukydev/vehicle-health/internal/notify"
)

const shutdownTimeout = 10 * time.Second

// newRouter wires the condition endpoints behind authentication, permission
// checks and rate limiting.
func newRouter(h *handlers.ConditionHandler, authMW *middleware.AuthMiddleware, limiter func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	protect := func(action string, fn http.HandlerFunc) http.Handler {
		return authMW.RequirePermission(action)(fn)
	}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /api/vehicles/condition", protect(models.ActionViewCondition, h.ListConditions))
	mux.Handle("GET /api/vehicles/{id}/condition", protect(models.ActionViewCondition, h.GetCondition))
	mux.Handle("GET /api/vehicles/{id}/condition/latest", protect(models.ActionViewCondition, h.LatestSnapshot))
	mux.Handle("POST /api/vehicles/{id}/condition/snapshot", protect(models.ActionRecordCondition, h.RecordSnapshot))
	mux.Handle("POST /api/condition", protect(models.ActionScoreDocument, h.ScoreDocument))

	return middleware.RequestLogger(log.StandardLogger())(limiter(authMW.Authenticate(mux)))
}

func newPublisher(cfg *config.Config) notify.Publisher {
	if cfg.MQTTBroker == "" {
		log.Info("MQTT_BROKER not set, snapshot publishing disabled")
		return notify.NopPublisher{}
	}
	publisher, err := notify.NewMQTTPublisher(notify.MQTTConfig{
		Broker:      cfg.MQTTBroker,
		ClientID:    cfg.MQTTClientID,
		TopicPrefix: cfg.MQTTTopicPrefix,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to connect to MQTT broker, snapshot publishing disabled")
		return notify.NopPublisher{}
	}
	return publisher
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.WithError(err).Fatal("Failed to configure logging")
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set to the identity provider's signing secret")
	}
	authService, err := auth.NewService(cfg.JWTSecret)
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	vehicles := &db.MongoCollection{Collection: database.Collection("vehicles")}
	snapshots := &db.MongoSnapshotCollection{Collection: database.Collection("condition_snapshots")}
	if err := snapshots.EnsureSnapshotIndexes(ctx); err != nil {
		log.WithError(err).Warn("Failed to create snapshot indexes")
	}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	scorer := condition.NewScorer(time.Now, log.StandardLogger())
	handler := handlers.NewConditionHandler(scorer, vehicles, snapshots, publisher)
	limiter := middleware.NewRateLimitMiddleware().RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(handler, middleware.NewAuthMiddleware(authService), limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.WithField("port", cfg.Port).Info("HTTP server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("HTTP server failed")
	}
	log.Info("HTTP server stopped")
}
