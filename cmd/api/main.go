package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/valmatch-sync/internal/config"
	"github.com/valmatch-sync/internal/infrastructure/dynamo"
	s3infra "github.com/valmatch-sync/internal/infrastructure/s3"
	transporthttp "github.com/valmatch-sync/internal/transport/http"
	"github.com/valmatch-sync/internal/upstream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// S3-backed tournament-icon document.
	s3Client := s3infra.NewClient(cfg)
	iconStore := s3infra.NewIconStore(s3Client, cfg.IconBucket, cfg.IconObject)

	deps := &transporthttp.Deps{
		NotificationRepo: dynamo.NewNotificationSetRepo(dynamoClient, cfg.DynamoTables.NotificationSets),
		IconStore:        iconStore,
		Upstream:         upstream.NewClient(cfg.UpstreamURL),
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
