package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// DefaultTags are the tags a fresh installation offers for filtering
var DefaultTags = []models.Tag{
	{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
	{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
	{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
}

// DemoUser is a development account created by SeedDemoData
type DemoUser struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	IsStaff   bool
}

var DemoUsers = []DemoUser{
	{Email: "john.doe@example.com", Username: "johndoe", FirstName: "John", LastName: "Doe"},
	{Email: "jane.smith@example.com", Username: "janesmith", FirstName: "Jane", LastName: "Smith"},
	{Email: "admin@example.com", Username: "admin", FirstName: "Admin", LastName: "User", IsStaff: true},
}

// SeedDemoData inserts DefaultTags and DemoUsers, all sharing password.
// Rows that already exist are left alone, so it is safe to run repeatedly.
func SeedDemoData(db *gorm.DB, password string, log logrus.FieldLogger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		tags := make([]models.Tag, len(DefaultTags))
		copy(tags, DefaultTags)
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
		if result.Error != nil {
			return fmt.Errorf("failed to seed tags: %w", result.Error)
		}
		log.WithField("created", result.RowsAffected).Info("seeded tags")

		for _, u := range DemoUsers {
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ? OR username = ?", u.Email, u.Username).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to look up user %s: %w", u.Email, err)
			}
			if count > 0 {
				log.WithField("email", u.Email).Debug("user already exists, skipping")
				continue
			}

			user := models.User{
				Email:        u.Email,
				Username:     u.Username,
				FirstName:    u.FirstName,
				LastName:     u.LastName,
				PasswordHash: string(hash),
				IsStaff:      u.IsStaff,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", u.Email, err)
			}
			log.WithFields(logrus.Fields{"email": u.Email, "staff": u.IsStaff}).Info("created demo user")
		}
		return nil
	})
}
