package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Leganyst/service-marketplace/internal/db/dbtest"
	"github.com/Leganyst/service-marketplace/internal/model"
)

func TestAccount_Age(t *testing.T) {
	born := datatypes.Date(time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC))
	a := &model.Account{BirthDate: &born}

	assert.Equal(t, 34, a.Age(time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 35, a.Age(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, (&model.Account{}).Age(time.Now()))
}

func TestAccount_ShortName(t *testing.T) {
	assert.Equal(t, "Maria", (&model.Account{FullName: "  Maria da Silva "}).ShortName())
	assert.Equal(t, "x@y.z", (&model.Account{Email: "x@y.z"}).ShortName())
}

func TestAccount_Profile(t *testing.T) {
	client := &model.Account{Role: model.RoleClient, ClientProfile: &model.ClientProfile{}}
	p := client.Profile()
	assert.Equal(t, model.ProfileClient, p.Kind)
	assert.NotNil(t, p.Client)
	assert.Nil(t, p.Provider)

	assert.NoError(t, client.ValidateProfileKind(model.ProfileClient))
	assert.ErrorIs(t, client.ValidateProfileKind(model.ProfileProvider), model.ErrRoleConflict)

	provider := &model.Account{Role: model.RoleProvider}
	assert.Equal(t, model.ProfileProvider, provider.Profile().Kind)
	assert.ErrorIs(t, provider.ValidateProfileKind(model.ProfileClient), model.ErrRoleConflict)

	assert.Equal(t, model.ProfileNone, (&model.Account{}).Profile().Kind)
}

func TestProviderProfile_LocationLabel(t *testing.T) {
	p := &model.ProviderProfile{Address: model.Address{City: "Campinas", Neighborhood: "Centro", State: "SP"}}
	assert.Equal(t, "Campinas, Centro, SP", p.LocationLabel())

	p = &model.ProviderProfile{Address: model.Address{City: "Campinas", State: "SP"}}
	assert.Equal(t, "Campinas, SP", p.LocationLabel())

	assert.Equal(t, "Localização não informada", (&model.ProviderProfile{}).LocationLabel())
}

func TestProviderProfile_DefaultRating(t *testing.T) {
	db := dbtest.New(t)
	acc := dbtest.NewAccount(t, db, "p@test.com", "P", model.RoleProvider)
	p := dbtest.NewProviderProfile(t, db, acc.ID, nil, nil)

	var got model.ProviderProfile
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, model.DefaultRatingAverage, got.RatingAverage)
	assert.Zero(t, got.RatingCount)
}

func TestSoftDelete_DefaultScopeAndUnscoped(t *testing.T) {
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)

	at := time.Now().UTC()
	require.NoError(t, db.Model(&model.ProviderProfile{}).
		Where("id = ?", f.ProviderProfile.ID).
		Updates(model.SoftDeleteUpdates(at)).Error)

	var visible int64
	require.NoError(t, db.Model(&model.ProviderProfile{}).Where("id = ?", f.ProviderProfile.ID).Count(&visible).Error)
	assert.Zero(t, visible)

	var all model.ProviderProfile
	require.NoError(t, db.Unscoped().First(&all, "id = ?", f.ProviderProfile.ID).Error)
	assert.True(t, all.Deleted())
	assert.True(t, all.IsDeleted)
	assert.True(t, all.DeletedAt.Valid)
}

func TestRating_UniquePerContact(t *testing.T) {
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	c := dbtest.CompletedContact(t, db, f)

	require.NoError(t, db.Create(&model.Rating{ContactRequestID: c.ID, Score: 5}).Error)
	assert.Error(t, db.Create(&model.Rating{ContactRequestID: c.ID, Score: 4}).Error)
}

func TestRating_ScoreCheck(t *testing.T) {
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	c := dbtest.CompletedContact(t, db, f)

	assert.Error(t, db.Create(&model.Rating{ContactRequestID: c.ID, Score: 6}).Error)
	assert.Error(t, db.Create(&model.Rating{ContactRequestID: c.ID, Score: 0}).Error)
}

func TestNewEvent(t *testing.T) {
	e := model.NewEvent(model.EventTypeRatingCreated, nil, nil, map[string]any{"score": 5})
	assert.JSONEq(t, `{"score":5}`, string(e.Details))

	e = model.NewEvent(model.EventTypeRatingRemoved, nil, nil, nil)
	assert.JSONEq(t, `{}`, string(e.Details))
}
