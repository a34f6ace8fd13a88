package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

const maxPortfolioDescription = 255

// PortfolioService — фото работ исполнителя. Файлы хранятся снаружи, здесь только ссылки.
type PortfolioService struct {
	db     *gorm.DB
	cache  ProviderCache
	logger *zap.Logger
}

func NewPortfolioService(db *gorm.DB, cache ProviderCache, logger *zap.Logger) *PortfolioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioService{db: db, cache: cacheOrNoop(cache), logger: logger}
}

type PortfolioUpdate struct {
	ImageURL    *string
	Description *string
}

// List — не исполнителю возвращается пустой список.
func (s *PortfolioService) List(ctx context.Context, providerAccountID uuid.UUID) ([]model.PortfolioItem, error) {
	profile, err := repository.NewGormProviderRepository(s.db).GetByAccountID(ctx, providerAccountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []model.PortfolioItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get provider profile: %w", err)
	}

	items, err := repository.NewGormPortfolioRepository(s.db).ListByProvider(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list portfolio: %w", err)
	}
	return items, nil
}

func (s *PortfolioService) Add(ctx context.Context, providerAccountID uuid.UUID, imageURL, description string) (*model.PortfolioItem, error) {
	profile, err := s.providerProfile(ctx, providerAccountID)
	if err != nil {
		return nil, err
	}

	v := &ValidationError{}
	item := &model.PortfolioItem{
		ProviderID:  profile.ID,
		ImageURL:    required(v, "image", imageURL),
		Description: validateDescription(v, description),
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := repository.NewGormPortfolioRepository(s.db).Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create portfolio item: %w", err)
	}
	s.invalidate(ctx, profile.ID)
	return item, nil
}

func (s *PortfolioService) Update(ctx context.Context, providerAccountID, itemID uuid.UUID, upd PortfolioUpdate) (*model.PortfolioItem, error) {
	profile, item, err := s.ownedItem(ctx, providerAccountID, itemID)
	if err != nil {
		return nil, err
	}

	v := &ValidationError{}
	fields := map[string]any{}
	if upd.ImageURL != nil {
		item.ImageURL = required(v, "image", *upd.ImageURL)
		fields["image_url"] = item.ImageURL
	}
	if upd.Description != nil {
		item.Description = validateDescription(v, *upd.Description)
		fields["description"] = item.Description
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := repository.NewGormPortfolioRepository(s.db).UpdateFields(ctx, item.ID, fields); err != nil {
		return nil, fmt.Errorf("update portfolio item: %w", err)
	}
	s.invalidate(ctx, profile.ID)
	return item, nil
}

// Delete — мягкое удаление.
func (s *PortfolioService) Delete(ctx context.Context, providerAccountID, itemID uuid.UUID) error {
	profile, item, err := s.ownedItem(ctx, providerAccountID, itemID)
	if err != nil {
		return err
	}
	if err := repository.NewGormPortfolioRepository(s.db).MarkDeleted(ctx, item.ID, time.Now().UTC()); err != nil {
		return notFound(err, "delete portfolio item")
	}
	s.invalidate(ctx, profile.ID)
	return nil
}

func (s *PortfolioService) providerProfile(ctx context.Context, accountID uuid.UUID) (*model.ProviderProfile, error) {
	profile, err := repository.NewGormProviderRepository(s.db).GetByAccountID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("portfolio requires a provider profile: %w", ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("get provider profile: %w", err)
	}
	return profile, nil
}

// ownedItem — чужой элемент портфолио выглядит как несуществующий.
func (s *PortfolioService) ownedItem(ctx context.Context, accountID, itemID uuid.UUID) (*model.ProviderProfile, *model.PortfolioItem, error) {
	profile, err := s.providerProfile(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	item, err := repository.NewGormPortfolioRepository(s.db).GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, notFound(err, "get portfolio item")
	}
	if item.ProviderID != profile.ID {
		return nil, nil, fmt.Errorf("portfolio item %s: %w", itemID, ErrNotFound)
	}
	return profile, item, nil
}

func (s *PortfolioService) invalidate(ctx context.Context, profileID uuid.UUID) {
	if err := s.cache.InvalidateProvider(ctx, profileID); err != nil {
		s.logger.Warn("provider cache invalidation failed", zap.Error(err))
	}
}

func validateDescription(v *ValidationError, raw string) string {
	d := strings.TrimSpace(raw)
	if utf8.RuneCountInString(d) > maxPortfolioDescription {
		v.Add("description", fmt.Sprintf("Certifique-se de que este campo não tenha mais de %d caracteres.", maxPortfolioDescription))
	}
	return d
}
