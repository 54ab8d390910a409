package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

const (
	defaultCacheTTL = 30 * time.Second
	cacheOpTimeout  = 2 * time.Second
)

// CachedCatalog — кэширующая обёртка над каталогом книг.
// Чтение идёт через кэш (cache-aside), конкурентные промахи по одному
// и тому же набору книг схлопываются через singleflight.
//
// Кэш best-effort: любая ошибка кэша приводит к походу в основной каталог,
// а не к отказу операции.
type CachedCatalog struct {
	inner  domain.Catalog
	cache  ProductCache
	ttl    time.Duration
	group  singleflight.Group
	logger *log.Entry
}

// NewCachedCatalog создаёт кэширующий каталог. ttl<=0 заменяется значением
// по умолчанию.
func NewCachedCatalog(inner domain.Catalog, cache ProductCache, ttl time.Duration, logger *log.Entry) *CachedCatalog {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = log.New().WithField("component", "catalog-cache")
	}
	return &CachedCatalog{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

var _ domain.Catalog = (*CachedCatalog)(nil)

// GetByID возвращает книгу, подставляя её из кэша при попадании.
func (c *CachedCatalog) GetByID(productID string) (domain.Product, error) {
	ctx, cancel := c.cacheContext()
	defer cancel()

	if product, ok := c.cacheGet(ctx, productID); ok {
		return product, nil
	}

	value, err, _ := c.group.Do("product:"+productID, func() (any, error) {
		product, err := c.inner.GetByID(productID)
		if err != nil {
			return nil, err
		}
		c.cacheSet(ctx, product)
		return product, nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	return value.(domain.Product), nil
}

// GetByIDs возвращает найденные книги одним обращением к основному каталогу
// для всех промахов кэша. Неизвестные идентификаторы отсутствуют в результате.
func (c *CachedCatalog) GetByIDs(productIDs []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	ctx, cancel := c.cacheContext()
	defer cancel()

	var missing []string
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if product, ok := c.cacheGet(ctx, id); ok {
			result[id] = product
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	value, err, _ := c.group.Do(batchKey(missing), func() (any, error) {
		fetched, err := c.inner.GetByIDs(missing)
		if err != nil {
			return nil, err
		}
		for _, product := range fetched {
			c.cacheSet(ctx, product)
		}
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}

	for id, product := range value.(map[string]domain.Product) {
		result[id] = product
	}

	return result, nil
}

// Invalidate убирает книгу из кэша. Используется после изменения карточки,
// чтобы не ждать истечения TTL.
func (c *CachedCatalog) Invalidate(productID string) {
	ctx, cancel := c.cacheContext()
	defer cancel()

	if err := c.cache.Delete(ctx, productID); err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("cache invalidation failed")
	}
}

func (c *CachedCatalog) cacheGet(ctx context.Context, productID string) (domain.Product, bool) {
	product, ok, err := c.cache.Get(ctx, productID)
	if err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("cache read failed, falling back to catalog")
		return domain.Product{}, false
	}
	return product, ok
}

func (c *CachedCatalog) cacheSet(ctx context.Context, product domain.Product) {
	if err := c.cache.Set(ctx, product, c.ttl); err != nil {
		c.logger.WithError(err).WithField("product_id", product.ID).Warn("cache write failed")
	}
}

func (c *CachedCatalog) cacheContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cacheOpTimeout)
}

func batchKey(productIDs []string) string {
	sorted := make([]string, len(productIDs))
	copy(sorted, productIDs)
	sort.Strings(sorted)
	return "batch:" + strings.Join(sorted, ",")
}
