package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

// catalogInMemory — in-memory каталог товаров для тестов и локального
// запуска. Методы Set*/Remove позволяют имитировать независимые изменения
// каталога между операциями над заказом.
type catalogInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewCatalog возвращает пустой in-memory каталог.
func NewCatalog() *Catalog {
	return &Catalog{inner: &catalogInMemory{items: make(map[string]domain.Product)}}
}

// Catalog экспортирует управляющие методы поверх доменного интерфейса.
type Catalog struct {
	inner *catalogInMemory
}

// Put добавляет или заменяет товар каталога.
func (c *Catalog) Put(product domain.Product) {
	c.inner.mu.Lock()
	defer c.inner.mu.Unlock()
	c.inner.items[product.ID] = product
}

// SetAvailable переключает доступность товара, если он существует.
func (c *Catalog) SetAvailable(id string, available bool) {
	c.inner.mu.Lock()
	defer c.inner.mu.Unlock()
	if product, ok := c.inner.items[id]; ok {
		product.Available = available
		c.inner.items[id] = product
	}
}

// SetPrice меняет цену товара, если он существует.
func (c *Catalog) SetPrice(id string, priceMinor int64) {
	c.inner.mu.Lock()
	defer c.inner.mu.Unlock()
	if product, ok := c.inner.items[id]; ok {
		product.PriceMinor = priceMinor
		c.inner.items[id] = product
	}
}

// Remove убирает товар из каталога.
func (c *Catalog) Remove(id string) {
	c.inner.mu.Lock()
	defer c.inner.mu.Unlock()
	delete(c.inner.items, id)
}

// GetByID возвращает товар или ErrProductNotFound.
func (c *Catalog) GetByID(id string) (domain.Product, error) {
	c.inner.mu.RLock()
	defer c.inner.mu.RUnlock()

	product, ok := c.inner.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// GetByIDs возвращает найденные товары; отсутствующие идентификаторы опущены.
func (c *Catalog) GetByIDs(ids []string) (map[string]domain.Product, error) {
	c.inner.mu.RLock()
	defer c.inner.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := c.inner.items[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

var _ domain.Catalog = (*Catalog)(nil)
