package app

import (
	"context"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookshop/internal/catalog"
	"github.com/vladislavdragonenkov/bookshop/internal/domain"
	"github.com/vladislavdragonenkov/bookshop/internal/health"
)

// initCatalogCache оборачивает каталог кэшем в Redis, если адрес задан.
// При пустом RedisAddr возвращается исходный каталог без кэша.
func initCatalogCache(cfg Config, inner domain.Catalog, logger *log.Entry) (domain.Catalog, health.Checker, func() error) {
	if cfg.RedisAddr == "" {
		return inner, nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	cache := catalog.NewRedisProductCache(client)
	cached := catalog.NewCachedCatalog(inner, cache, cfg.CatalogCacheTTL, logger.WithField("component", "catalog-cache"))

	logger.WithField("redis_addr", cfg.RedisAddr).Info("catalog cache enabled")

	checker := health.CheckerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})

	return cached, checker, client.Close
}
