package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(config.GinMode())

	db, err := database.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.RunMigrations(db, getMigrationsDir(), log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = database.NewRedisClient(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
		defer rdb.Close()
	} else {
		log.Warn("Redis not configured, token revocation and rate limiting are disabled")
	}

	images, err := newImageStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to set up image storage")
	}

	srv := server.New(cfg, server.Deps{DB: db, Redis: rdb, Images: images, Log: log})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Fatal("server error")
		}
		return
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
	log.Info("server stopped")
}

func getMigrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "migrations"
}

// newImageStore picks S3 when a bucket is configured, local disk otherwise
func newImageStore(cfg *config.Config, log logrus.FieldLogger) (service.ImageStore, error) {
	if cfg.S3Bucket == "" {
		log.WithField("root", cfg.MediaRoot).Info("storing recipe images on local disk")
		return service.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL, log), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s3cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s3cfg.SetupBucketPolicy(ctx); err != nil {
		// managed buckets may deny PutBucketPolicy
		log.WithError(err).Warn("could not apply public-read bucket policy")
	}

	log.WithField("bucket", s3cfg.BucketName).Info("storing recipe images in S3")
	return service.NewS3ImageStore(s3cfg, log), nil
}
