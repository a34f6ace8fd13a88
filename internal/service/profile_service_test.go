package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/service-marketplace/internal/db/dbtest"
	"github.com/Leganyst/service-marketplace/internal/model"
)

func TestNeedsResolution(t *testing.T) {
	resolved := model.Address{
		PostalCode: "01001000", Street: "Praça da Sé", Number: "1",
		City: "São Paulo", Latitude: dbtest.Float(-23.55), Longitude: dbtest.Float(-46.63),
	}

	changed := func(mut func(a *model.Address)) model.Address {
		a := resolved
		mut(&a)
		return a
	}

	cases := []struct {
		name string
		prev *model.Address
		next model.Address
		want bool
	}{
		{"new profile", nil, resolved, true},
		{"unchanged", &resolved, resolved, false},
		{"complement only", &resolved, changed(func(a *model.Address) { a.Complement = "apto 2" }), false},
		{"postal code", &resolved, changed(func(a *model.Address) { a.PostalCode = "01310100" }), true},
		{"street", &resolved, changed(func(a *model.Address) { a.Street = "Rua Direita" }), true},
		{"number", &resolved, changed(func(a *model.Address) { a.Number = "2" }), true},
		{"no coordinates", &resolved, changed(func(a *model.Address) { a.Latitude = nil }), true},
		{"no city", &resolved, changed(func(a *model.Address) { a.City = "" }), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, needsResolution(tc.prev, tc.next))
		})
	}
}

func TestProfileService_ProviderProfileResolution(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	resolver := resolvedSaoPaulo()
	svc := NewProfileService(db, resolver, nil, nil)

	// в фикстуре нет координат — первое же сохранение геокодирует
	p, err := svc.UpdateProviderProfile(ctx, f.Provider.ID, ProviderProfileInput{Bio: strPtr("  Cabeleireiro  ")})
	require.NoError(t, err)
	assert.Equal(t, "Cabeleireiro", p.Bio)
	require.Len(t, resolver.queries, 1)
	require.True(t, p.Address.HasCoordinates())

	// адрес не менялся и уже разрешён — резолвер не зовём
	p, err = svc.UpdateProviderProfile(ctx, f.Provider.ID, ProviderProfileInput{
		PublicPhone:  strPtr("(21) 97777-6666"),
		Available24h: boolPtr(true),
		Address:      AddressInput{Complement: strPtr("fundos")},
	})
	require.NoError(t, err)
	assert.Len(t, resolver.queries, 1)
	assert.Equal(t, "21977776666", p.PublicPhone)
	assert.True(t, p.Available24h)

	// новый номер, резолвер не справился — прежние координаты остаются
	resolver.ok = false
	p, err = svc.UpdateProviderProfile(ctx, f.Provider.ID, ProviderProfileInput{Address: AddressInput{Number: strPtr("99")}})
	require.NoError(t, err)
	require.Len(t, resolver.queries, 2)
	assert.Equal(t, "99", resolver.queries[1].Number)
	require.True(t, p.Address.HasCoordinates())
	assert.InDelta(t, -23.5505, *p.Address.Latitude, 1e-6)

	var stored model.ProviderProfile
	require.NoError(t, db.First(&stored, "id = ?", f.ProviderProfile.ID).Error)
	assert.Equal(t, "99", stored.Address.Number)
	assert.Equal(t, "fundos", stored.Address.Complement)
	assert.Equal(t, model.DefaultRatingAverage, stored.RatingAverage)
}

func TestProfileService_Validation(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewProfileService(db, nil, nil, nil)

	_, err := svc.UpdateClientProfile(ctx, f.Client.ID, ClientProfileInput{
		ContactPhone: strPtr("123"),
		Address:      AddressInput{PostalCode: strPtr("abc")},
	})
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.NotEmpty(t, v.Fields["contact_phone"])
	assert.NotEmpty(t, v.Fields["postal_code"])

	// профиль другой роли
	_, err = svc.SaveProviderProfile(ctx, f.Client.ID, ProviderProfileInput{})
	require.ErrorAs(t, err, &v)
	assert.NotEmpty(t, v.Fields[NonFieldErrors])

	// новый профиль требует адрес
	fresh := dbtest.NewAccount(t, db, "novo@test.com", "Novo Cliente", model.RoleClient)
	_, err = svc.SaveClientProfile(ctx, fresh.ID, ClientProfileInput{ContactPhone: strPtr("11988887777")})
	require.ErrorAs(t, err, &v)
	for _, field := range []string{"postal_code", "street", "number"} {
		assert.NotEmpty(t, v.Fields[field], field)
	}

	_, err = svc.UpdateClientProfile(ctx, fresh.ID, ClientProfileInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileService_CreateClientProfile(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	svc := NewProfileService(db, resolvedSaoPaulo(), nil, nil)

	a := dbtest.NewAccount(t, db, "perfil@test.com", "Ana", model.RoleClient)
	p, err := svc.SaveClientProfile(ctx, a.ID, ClientProfileInput{
		ContactPhone: strPtr("11 98888 7777"),
		Address: AddressInput{
			PostalCode: strPtr("01001-000"),
			Street:     strPtr("Praça da Sé"),
			Number:     strPtr("5"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "01001000", p.Address.PostalCode)
	assert.Equal(t, "SP", p.Address.State)
	assert.True(t, p.Address.HasCoordinates())
}
