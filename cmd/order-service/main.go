package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookshop/internal/app"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if v := os.Getenv("BOOKSHOP_LOG_LEVEL"); v != "" {
		if level, err := log.ParseLevel(v); err == nil {
			log.SetLevel(level)
		}
	}
}

// readConfig формирует конфигурацию приложения, позволяя переопределить
// настройки через переменные окружения.
func readConfig() app.Config {
	cfg := app.DefaultConfig()
	if v := os.Getenv("BOOKSHOP_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("BOOKSHOP_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	driverSet := false
	if v := os.Getenv("BOOKSHOP_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = v
		driverSet = true
	}
	if v := os.Getenv("BOOKSHOP_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
		// Заданный DSN переключает драйвер, если тот не выбран явно.
		if !driverSet {
			cfg.StorageDriver = app.StorageDriverPostgres
		}
	}
	if v := os.Getenv("BOOKSHOP_POSTGRES_AUTO_MIGRATE"); v == "1" || v == "true" {
		cfg.PostgresAutoMigrate = true
	}
	if v := os.Getenv("BOOKSHOP_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("BOOKSHOP_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("BOOKSHOP_CATALOG_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil && ttl > 0 {
			cfg.CatalogCacheTTL = ttl
		}
	}
	return cfg
}

func main() {
	setupLogger()
	cfg := readConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
	}).Info("запускаем сервис заказов книжного магазина")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("сервис заказов остановлен")
}
