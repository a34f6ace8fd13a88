// Package dbtest поднимает изолированную in-memory SQLite с миграциями для тестов.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/service-marketplace/internal/model"
)

// New открывает отдельную базу на каждый тест.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		tb.Fatalf("auto migrate: %v", err)
	}
	return db
}

// Fixture — минимальный набор связанных записей для сценариев.
type Fixture struct {
	Category *model.ServiceCategory
	Service  *model.Service
	Client   *model.Account
	Provider *model.Account

	ClientProfile   *model.ClientProfile
	ProviderProfile *model.ProviderProfile
}

// Seed создаёт категорию, услугу, клиента и исполнителя с профилями.
func Seed(tb testing.TB, db *gorm.DB) *Fixture {
	tb.Helper()

	f := &Fixture{}
	f.Category = &model.ServiceCategory{Name: "Beleza"}
	mustCreate(tb, db, f.Category)
	f.Service = &model.Service{Name: "Corte", CategoryID: f.Category.ID}
	mustCreate(tb, db, f.Service)

	f.Client = NewAccount(tb, db, "cliente@test.com", "Cliente Teste", model.RoleClient)
	f.ClientProfile = &model.ClientProfile{
		AccountID:    f.Client.ID,
		ContactPhone: "11988887777",
		Address:      model.Address{PostalCode: "01001000", Street: "Praça da Sé", Number: "1"},
	}
	mustCreate(tb, db, f.ClientProfile)

	f.Provider = NewAccount(tb, db, "prestador@test.com", "Prestador Teste", model.RoleProvider)
	f.ProviderProfile = NewProviderProfile(tb, db, f.Provider.ID, nil, nil)
	mustCreate(tb, db, &model.ProviderService{ProviderID: f.ProviderProfile.ID, ServiceID: f.Service.ID})

	return f
}

func NewAccount(tb testing.TB, db *gorm.DB, email, name string, role model.Role) *model.Account {
	tb.Helper()
	a := &model.Account{Email: email, FullName: name, Role: role}
	mustCreate(tb, db, a)
	return a
}

func NewProviderProfile(tb testing.TB, db *gorm.DB, accountID uuid.UUID, lat, lon *float64) *model.ProviderProfile {
	tb.Helper()
	p := &model.ProviderProfile{
		AccountID:   accountID,
		PublicPhone: "11999990000",
		Address: model.Address{
			PostalCode: "01001000",
			Street:     "Praça da Sé",
			Number:     "2",
			City:       "São Paulo",
			State:      "SP",
			Latitude:   lat,
			Longitude:  lon,
		},
	}
	mustCreate(tb, db, p)
	return p
}

// CompletedContact — завершённая заявка клиента к исполнителю.
func CompletedContact(tb testing.TB, db *gorm.DB, f *Fixture) *model.ContactRequest {
	tb.Helper()
	now := time.Now().UTC()
	c := &model.ContactRequest{
		ClientID:    f.Client.ID,
		ProviderID:  f.Provider.ID,
		ServiceID:   f.Service.ID,
		Completed:   true,
		CompletedAt: &now,
	}
	mustCreate(tb, db, c)
	return c
}

func Float(v float64) *float64 { return &v }

func mustCreate(tb testing.TB, db *gorm.DB, v any) {
	tb.Helper()
	if err := db.Create(v).Error; err != nil {
		tb.Fatalf("seed %T: %v", v, err)
	}
}
