package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей маркетплейса.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&ServiceCategory{},
		&Service{},
		&ClientProfile{},
		&ProviderProfile{},
		&ProviderService{},
		&ContactRequest{},
		&Rating{},
		&PortfolioItem{},
		&Event{},
	)
}
