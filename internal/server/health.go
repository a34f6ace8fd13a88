package server

import (
	"context"

	"gorm.io/gorm"
)

// HealthService — проверка готовности для /healthz.
type HealthService interface {
	Probe(ctx context.Context) error
}

// DBHealthService пингует базу.
type DBHealthService struct {
	DB *gorm.DB
}

func (s DBHealthService) Probe(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
