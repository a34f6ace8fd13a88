package config

import (
	"fmt"
	"time"
)

// AppConfig — всё, что нужно процессу кроме БД.
type AppConfig struct {
	HTTP    HTTPConfig
	GRPC    GRPCConfig
	Logging LoggingConfig
	Redis   RedisConfig
	Geo     GeoConfig
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type GRPCConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level       string
	Format      string // json|console
	ServiceName string
}

// RedisConfig — кэш публичных карточек исполнителей. Пустой Addr отключает кэш.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// GeoConfig — внешние сервисы резолвинга адресов.
type GeoConfig struct {
	PrimaryURL      string
	SecondaryURL    string
	GeocoderURL     string
	UserAgent       string
	PrimaryTimeout  time.Duration
	GeocoderTimeout time.Duration
	RetryDelay      time.Duration
	GeocoderRPS     float64
	Enabled         bool
}

func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTP: HTTPConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout: getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			// сохранение профиля может ждать геокодер несколько секунд
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 45*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS"),
		},
		GRPC: GRPCConfig{
			Addr: getEnv("GRPC_ADDR", ":50051"),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			ServiceName: getEnv("SERVICE_NAME", "service-marketplace"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("PROVIDER_CACHE_TTL", 5*time.Minute),
		},
		Geo: GeoConfig{
			PrimaryURL:      getEnv("GEO_PRIMARY_URL", "https://brasilapi.com.br"),
			SecondaryURL:    getEnv("GEO_SECONDARY_URL", "https://viacep.com.br"),
			GeocoderURL:     getEnv("GEO_GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:       getEnv("GEO_USER_AGENT", "ServicoJa_App_Final/1.0"),
			PrimaryTimeout:  getEnvDuration("GEO_PRIMARY_TIMEOUT", 5*time.Second),
			GeocoderTimeout: getEnvDuration("GEO_GEOCODER_TIMEOUT", 10*time.Second),
			RetryDelay:      getEnvDuration("GEO_RETRY_DELAY", time.Second),
			GeocoderRPS:     1,
			Enabled:         getEnvBool("GEO_ENABLED", true),
		},
	}

	if cfg.HTTP.Addr == "" && cfg.GRPC.Addr == "" {
		return nil, fmt.Errorf("invalid app config: at least one of HTTP_ADDR/GRPC_ADDR is required")
	}
	if cfg.Geo.RetryDelay < 0 {
		return nil, fmt.Errorf("invalid app config: GEO_RETRY_DELAY must not be negative")
	}

	return cfg, nil
}
