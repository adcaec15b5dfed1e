package main

import (
	"flag"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

func main() {
	file := flag.String("file", "data/ingredients.csv", "CSV file with name,measurement_unit rows")
	erase := flag.Bool("erase", false, "Clear the ingredients table before loading")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.WithError(err).WithField("file", *file).Fatal("failed to open ingredients file")
	}
	defer f.Close()

	n, err := database.LoadIngredients(db, f, *erase, log)
	if err != nil {
		log.WithError(err).Fatal("failed to load ingredients")
	}
	log.WithField("inserted", n).Info("done")
}
