package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
	"github.com/vladislavdragonenkov/bookshop/internal/health"
	"github.com/vladislavdragonenkov/bookshop/internal/identity"
	"github.com/vladislavdragonenkov/bookshop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/bookshop/internal/service/order"
	"github.com/vladislavdragonenkov/bookshop/internal/version"
)

// Dependencies содержит собранные зависимости приложения: хранилища,
// каталог (с кэшем, если включён Redis), шину событий и сам сервис заказов.
type Dependencies struct {
	Orders   domain.OrderRepository
	Catalog  domain.Catalog
	Users    domain.UserRepository
	Identity domain.IdentityResolver
	Service  *order.Service
	Health   *health.Handler
	Logger   *log.Entry

	kafkaProducer *kafka.Producer
	closers       []func() error
}

// NewDependencies собирает все зависимости по конфигурации.
// Kafka и Redis опциональны: их отсутствие не мешает запуску сервиса.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Orders: storage.Orders,
		Users:  storage.Users,
		Logger: logger,
	}
	deps.closers = append(deps.closers, storage.Close)

	healthHandler := health.NewHandler(version.GetVersion())
	if storage.Checker != nil {
		healthHandler.RegisterChecker("postgres", storage.Checker)
	}

	bookCatalog, cacheChecker, cacheClose := initCatalogCache(cfg, storage.Catalog, logger)
	deps.Catalog = bookCatalog
	if cacheChecker != nil {
		healthHandler.RegisterChecker("redis", cacheChecker)
	}
	if cacheClose != nil {
		deps.closers = append(deps.closers, cacheClose)
	}

	// Ошибка Kafka не фатальна: сервис продолжает работу без событий.
	producer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	deps.kafkaProducer = producer

	var events domain.EventPublisher
	if producer != nil {
		events = producer
	}

	deps.Identity = identity.NewResolver(storage.Users, logger.WithField("component", "identity"))
	deps.Service = order.NewService(
		storage.Orders,
		bookCatalog,
		events,
		logger.WithField("component", "order-service"),
	)
	deps.Health = healthHandler

	return deps, nil
}

// Close освобождает ресурсы в обратном порядке создания.
func (d *Dependencies) Close() {
	closeKafka(d.kafkaProducer, d.Logger)
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.WithError(err).Warn("failed to close dependency")
		}
	}
}
