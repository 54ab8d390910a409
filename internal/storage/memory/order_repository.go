package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Insert сохраняет новый заказ. Как и partial unique index в PostgreSQL,
// отклоняет второй черновой заказ одного владельца.
func (r *orderRepositoryInMemory) Insert(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderConflict
	}
	if !order.Submitted {
		for _, existing := range r.items {
			if existing.OwnerID == order.OwnerID && !existing.Submitted {
				return domain.ErrOpenOrderExists
			}
		}
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Update перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Update(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderConflict
	}
	// Инкрементируем версию перед сохранением.
	order.Version++
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Delete удаляет заказ или возвращает ErrOrderNotFound.
func (r *orderRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.items, id)
	return nil
}

// GetByID возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) GetByID(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// GetByOwnerAndID возвращает заказ, только если он принадлежит владельцу.
func (r *orderRepositoryInMemory) GetByOwnerAndID(ownerID, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok || order.OwnerID != ownerID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByOwner возвращает заказы владельца, новые первыми.
func (r *orderRepositoryInMemory) ListByOwner(ownerID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if order.OwnerID != ownerID {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// FindOpenByOwner возвращает черновой заказ владельца или ErrOrderNotFound.
func (r *orderRepositoryInMemory) FindOpenByOwner(ownerID string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.items {
		if order.OwnerID == ownerID && !order.Submitted {
			return cloneOrder(order), nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// cloneOrder копирует заказ вместе со слайсом позиций.
func cloneOrder(order domain.Order) domain.Order {
	clone := order
	if order.ProductIDs != nil {
		clone.ProductIDs = append([]string(nil), order.ProductIDs...)
	}
	return clone
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
