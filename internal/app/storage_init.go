package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
	"github.com/vladislavdragonenkov/bookshop/internal/health"
	"github.com/vladislavdragonenkov/bookshop/internal/storage/memory"
	"github.com/vladislavdragonenkov/bookshop/internal/storage/postgres"
)

// storageBundle объединяет хранилища, собранные под выбранный драйвер.
type storageBundle struct {
	Orders  domain.OrderRepository
	Catalog domain.Catalog
	Users   domain.UserRepository

	// Checker для health endpoint, nil у памяти.
	Checker health.Checker
	close   func() error
}

func (b *storageBundle) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// initStorage собирает хранилища по конфигурации.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageBundle, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		return initMemoryStorage(logger), nil
	case StorageDriverPostgres:
		return initPostgresStorage(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// initMemoryStorage поднимает хранилище в памяти с демо-данными.
// NOTE: Каталог и пользователи в памяти предназначены для разработки и демо;
// в production каталог живёт в PostgreSQL.
func initMemoryStorage(logger *log.Entry) *storageBundle {
	books := memory.NewCatalog()
	books.Put(domain.Product{ID: "book-go", Title: "The Go Programming Language", Author: "Donovan, Kernighan", PriceMinor: 4500, Available: true})
	books.Put(domain.Product{ID: "book-ddia", Title: "Designing Data-Intensive Applications", Author: "Kleppmann", PriceMinor: 5200, Available: true})
	books.Put(domain.Product{ID: "book-sicp", Title: "Structure and Interpretation of Computer Programs", Author: "Abelson, Sussman", PriceMinor: 3900, Available: true})

	users := memory.NewUserRepository(
		domain.Owner{ID: "demo-user", Username: "demo", Email: "demo@example.com"},
	)

	logger.Info("using in-memory storage with demo catalog")

	return &storageBundle{
		Orders:  memory.NewOrderRepository(),
		Catalog: books,
		Users:   users,
	}
}

func initPostgresStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageBundle, error) {
	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	if cfg.PostgresAutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	logger.Info("using postgres storage")

	return &storageBundle{
		Orders:  postgres.NewOrderRepository(store),
		Catalog: postgres.NewProductRepository(store),
		Users:   postgres.NewUserRepository(store),
		Checker: health.CheckerFunc(store.Ping),
		close: store.Close,
	}, nil
}
