package server

import (
	"go.uber.org/zap"
)

// handlers — HTTP-обработчики поверх сервисного слоя.
type handlers struct {
	logger *zap.Logger
	svc    Services
}
