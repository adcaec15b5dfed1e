package main

import (
	"flag"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

func main() {
	password := flag.String("password", "testpassword123", "Password shared by every demo user")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if config.IsProduction() {
		log.Fatal("refusing to seed demo users in production")
	}

	db, err := database.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if err := database.SeedDemoData(db, *password, log); err != nil {
		log.WithError(err).Fatal("seeding failed")
	}
	log.WithField("password", *password).Info("demo data ready")
}
