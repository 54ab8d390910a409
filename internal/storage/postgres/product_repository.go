package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

// ProductRepository предоставляет каталог книг поверх таблицы products.
type ProductRepository struct {
	db        *sql.DB
	opTimeout time.Duration
}

// NewProductRepository создаёт репозиторий каталога поверх открытого Store.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{
		db:        store.DB(),
		opTimeout: defaultOpTimeout,
	}
}

var _ domain.Catalog = (*ProductRepository)(nil)

// GetByID возвращает книгу по идентификатору.
func (r *ProductRepository) GetByID(productID string) (domain.Product, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, author, price_minor, available
		FROM products
		WHERE id = $1
	`, productID).Scan(&product.ID, &product.Title, &product.Author, &product.PriceMinor, &product.Available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}

	return product, nil
}

// GetByIDs возвращает книги одним запросом. Неизвестные идентификаторы
// просто отсутствуют в результате, ошибки по ним не возникает.
func (r *ProductRepository) GetByIDs(productIDs []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	ctx, cancel := r.opContext()
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, author, price_minor, available
		FROM products
		WHERE id = ANY($1)
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Title, &product.Author, &product.PriceMinor, &product.Available); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		result[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return result, nil
}

// Upsert сохраняет книгу, перезаписывая существующую запись.
func (r *ProductRepository) Upsert(product domain.Product) error {
	ctx, cancel := r.opContext()
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, title, author, price_minor, available, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    author = EXCLUDED.author,
		    price_minor = EXCLUDED.price_minor,
		    available = EXCLUDED.available,
		    updated_at = NOW()
	`, product.ID, product.Title, product.Author, product.PriceMinor, product.Available)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return fmt.Errorf("upsert product %s: %s: %w", product.ID, pgErr.Code, err)
		}
		return fmt.Errorf("upsert product %s: %w", product.ID, err)
	}

	return nil
}

// SetAvailable помечает книгу доступной или недоступной для заказа.
func (r *ProductRepository) SetAvailable(productID string, available bool) error {
	ctx, cancel := r.opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET available = $1, updated_at = NOW() WHERE id = $2
	`, available, productID)
	if err != nil {
		return fmt.Errorf("set availability of product %s: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows for product %s: %w", productID, err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *ProductRepository) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.opTimeout)
}
