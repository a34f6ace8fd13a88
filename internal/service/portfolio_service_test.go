package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/service-marketplace/internal/db/dbtest"
	"github.com/Leganyst/service-marketplace/internal/model"
)

func TestPortfolioService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewPortfolioService(db, nil, nil)

	item, err := svc.Add(ctx, f.Provider.ID, "https://img/1.jpg", "  Pintura da sala ")
	require.NoError(t, err)
	assert.Equal(t, "Pintura da sala", item.Description)

	updated, err := svc.Update(ctx, f.Provider.ID, item.ID, PortfolioUpdate{Description: strPtr("Sala e cozinha")})
	require.NoError(t, err)
	assert.Equal(t, "Sala e cozinha", updated.Description)
	assert.Equal(t, "https://img/1.jpg", updated.ImageURL)

	items, err := svc.List(ctx, f.Provider.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sala e cozinha", items[0].Description)

	require.NoError(t, svc.Delete(ctx, f.Provider.ID, item.ID))
	items, err = svc.List(ctx, f.Provider.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	var stored model.PortfolioItem
	require.NoError(t, db.Unscoped().First(&stored, "id = ?", item.ID).Error)
	assert.True(t, stored.IsDeleted)
}

func TestPortfolioService_Rejections(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewPortfolioService(db, nil, nil)

	items, err := svc.List(ctx, f.Client.ID)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = svc.Add(ctx, f.Client.ID, "https://img/1.jpg", "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Add(ctx, f.Provider.ID, " ", strings.Repeat("á", 256))
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.NotEmpty(t, v.Fields["image"])
	assert.NotEmpty(t, v.Fields["description"])

	_, err = svc.Add(ctx, f.Provider.ID, "https://img/ok.jpg", strings.Repeat("á", 255))
	require.NoError(t, err)

	// чужой элемент выглядит как несуществующий
	other := dbtest.NewAccount(t, db, "outro@test.com", "Outro", model.RoleProvider)
	otherProfile := dbtest.NewProviderProfile(t, db, other.ID, nil, nil)
	foreign := &model.PortfolioItem{ProviderID: otherProfile.ID, ImageURL: "https://img/x.jpg"}
	require.NoError(t, db.Create(foreign).Error)

	assert.ErrorIs(t, svc.Delete(ctx, f.Provider.ID, foreign.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, f.Provider.ID, uuid.New()), ErrNotFound)
	_, err = svc.Update(ctx, f.Provider.ID, foreign.ID, PortfolioUpdate{ImageURL: strPtr("https://img/y.jpg")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFavoritesService_Toggle(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewFavoritesService(db)

	on, err := svc.ToggleFavorite(ctx, f.Client.ID, f.ProviderProfile.ID)
	require.NoError(t, err)
	assert.True(t, on)

	favs, err := svc.ListFavorites(ctx, f.Client.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, f.ProviderProfile.ID, favs[0].ID)

	on, err = svc.ToggleFavorite(ctx, f.Client.ID, f.ProviderProfile.ID)
	require.NoError(t, err)
	assert.False(t, on)

	favs, err = svc.ListFavorites(ctx, f.Client.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = svc.ToggleFavorite(ctx, f.Client.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ToggleFavorite(ctx, f.Provider.ID, f.ProviderProfile.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ListFavorites(ctx, f.Provider.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
