package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

const ingredientBatchSize = 500

// LoadIngredients reads name,measurement_unit rows and inserts the ones
// not already present. With erase the table is emptied first, which also
// removes every recipe's ingredient lines. It returns the number of rows
// inserted.
func LoadIngredients(db *gorm.DB, r io.Reader, erase bool, log logrus.FieldLogger) (int64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	seen := make(map[models.Ingredient]struct{})
	var rows []models.Ingredient
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read ingredients: %w", err)
		}

		if len(record) < 2 || strings.TrimSpace(record[0]) == "" || strings.TrimSpace(record[1]) == "" {
			log.WithField("line", line).Warn("skipping malformed ingredient row")
			continue
		}
		ing := models.Ingredient{
			Name:            strings.TrimSpace(record[0]),
			MeasurementUnit: strings.TrimSpace(record[1]),
		}
		if _, dup := seen[ing]; dup {
			continue
		}
		seen[ing] = struct{}{}
		rows = append(rows, ing)
	}

	var inserted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if erase {
			if err := tx.Where("1 = 1").Delete(&models.Ingredient{}).Error; err != nil {
				return fmt.Errorf("failed to erase ingredients: %w", err)
			}
		}
		if len(rows) == 0 {
			return nil
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "measurement_unit"}},
			DoNothing: true,
		}).CreateInBatches(&rows, ingredientBatchSize)
		if result.Error != nil {
			return fmt.Errorf("failed to insert ingredients: %w", result.Error)
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(logrus.Fields{"read": len(rows), "inserted": inserted}).Info("ingredients loaded")
	return inserted, nil
}
