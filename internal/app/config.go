package app

import "time"

// Драйверы хранилища заказов.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	// StorageDriver выбирает хранилище: memory|postgres.
	StorageDriver string
	// PostgresDSN обязателен для драйвера postgres.
	PostgresDSN string
	// PostgresAutoMigrate применяет миграции при старте сервиса.
	PostgresAutoMigrate bool

	// KafkaBrokers — список брокеров через запятую; пустая строка отключает
	// публикацию событий.
	KafkaBrokers string

	// RedisAddr включает кэширование каталога; пустая строка отключает кэш.
	RedisAddr       string
	CatalogCacheTTL time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска:
// хранилище в памяти, без Kafka и Redis.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:        ":50051",
		MetricsAddr:     ":9090",
		StorageDriver:   StorageDriverMemory,
		CatalogCacheTTL: 30 * time.Second,
	}
}

// Validate проверяет согласованность конфигурации.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory, StorageDriverPostgres:
	default:
		return &ConfigError{Field: "StorageDriver", Reason: "must be memory or postgres"}
	}
	if c.StorageDriver == StorageDriverPostgres && c.PostgresDSN == "" {
		return &ConfigError{Field: "PostgresDSN", Reason: "required for postgres storage driver"}
	}
	return nil
}

// ConfigError описывает некорректное поле конфигурации.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Field + ": " + e.Reason
}
