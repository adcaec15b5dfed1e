package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
)

// SubscriptionView is a followed author with a preview of their recipes
type SubscriptionView struct {
	User         models.User
	IsSubscribed bool
	RecipesCount int64
	Recipes      []models.Recipe
}

// SubscriptionService manages follows between users
type SubscriptionService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewSubscriptionService(db *gorm.DB, log logrus.FieldLogger) *SubscriptionService {
	return &SubscriptionService{db: db, log: logging.OrDefault(log)}
}

func (s *SubscriptionService) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// Subscribe makes userID follow authorID and returns the author's
// subscription view.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit *int) (*SubscriptionView, error) {
	if userID == authorID {
		return nil, ErrSelfSubscription
	}
	if err := checkRecipesLimit(recipesLimit); err != nil {
		return nil, err
	}
	author, err := s.findUser(ctx, authorID)
	if err != nil {
		return nil, err
	}

	follow := &models.Follow{UserID: userID, FollowingID: authorID}
	if err := s.db.WithContext(ctx).Create(follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "author_id": authorID}).Info("subscribed")

	views, err := s.buildViews(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if _, err := s.findUser(ctx, authorID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND following_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotSubscribed
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "author_id": authorID}).Info("unsubscribed")
	return nil
}

// ListSubscriptions returns one page of the authors userID follows,
// ordered by username.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, userID uuid.UUID, recipesLimit *int, page PageRequest) ([]SubscriptionView, int64, error) {
	if err := checkRecipesLimit(recipesLimit); err != nil {
		return nil, 0, err
	}

	db := s.db.WithContext(ctx)
	followed := db.Model(&models.Follow{}).Select("following_id").Where("user_id = ?", userID)
	query := db.Model(&models.User{}).
		Where("users.id IN (?)", followed).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	if err := query.Order("users.username").Limit(page.Limit).Offset(page.Offset).Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	views, err := s.buildViews(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func checkRecipesLimit(limit *int) error {
	if limit != nil && *limit < 0 {
		return ErrInvalidRecipesLimit
	}
	return nil
}

// buildViews loads recipe counts and newest recipes for each author. Every
// author in the result is followed by the requester.
func (s *SubscriptionService) buildViews(ctx context.Context, authors []models.User, recipesLimit *int) ([]SubscriptionView, error) {
	db := s.db.WithContext(ctx)
	views := make([]SubscriptionView, len(authors))

	for i, author := range authors {
		views[i] = SubscriptionView{User: author, IsSubscribed: true}

		if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&views[i].RecipesCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count recipes: %w", err)
		}

		if recipesLimit != nil && *recipesLimit == 0 {
			views[i].Recipes = []models.Recipe{}
			continue
		}
		query := db.Where("author_id = ?", author.ID).Order("pub_date DESC").Order("id DESC")
		if recipesLimit != nil {
			query = query.Limit(*recipesLimit)
		}
		if err := query.Find(&views[i].Recipes).Error; err != nil {
			return nil, fmt.Errorf("failed to load recipes: %w", err)
		}
	}
	return views, nil
}
