package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

// FavoritesService — избранные исполнители клиента.
type FavoritesService struct {
	db *gorm.DB
}

func NewFavoritesService(db *gorm.DB) *FavoritesService {
	return &FavoritesService{db: db}
}

func (s *FavoritesService) ListFavorites(ctx context.Context, clientAccountID uuid.UUID) ([]model.ProviderProfile, error) {
	profile, err := s.clientProfile(ctx, clientAccountID)
	if err != nil {
		return nil, err
	}
	providers, err := repository.NewGormClientRepository(s.db).ListFavorites(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return providers, nil
}

// ToggleFavorite добавляет исполнителя в избранное или убирает его; возвращает новое состояние.
func (s *FavoritesService) ToggleFavorite(ctx context.Context, clientAccountID, providerProfileID uuid.UUID) (bool, error) {
	profile, err := s.clientProfile(ctx, clientAccountID)
	if err != nil {
		return false, err
	}
	if _, err := repository.NewGormProviderRepository(s.db).GetByID(ctx, providerProfileID); err != nil {
		return false, notFound(err, "get provider profile")
	}

	var favorited bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clients := repository.NewGormClientRepository(tx)
		exists, err := clients.IsFavorite(ctx, profile.ID, providerProfileID)
		if err != nil {
			return err
		}
		if exists {
			return clients.RemoveFavorite(ctx, profile.ID, providerProfileID)
		}
		favorited = true
		return clients.AddFavorite(ctx, profile.ID, providerProfileID)
	})
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	return favorited, nil
}

func (s *FavoritesService) clientProfile(ctx context.Context, accountID uuid.UUID) (*model.ClientProfile, error) {
	profile, err := repository.NewGormClientRepository(s.db).GetByAccountID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("favorites are available to clients only: %w", ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("get client profile: %w", err)
	}
	return profile, nil
}
