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

const (
	pgUniqueViolation = "23505"

	openOrderIndexName = "uq_orders_one_open_per_owner"
)

// OrderRepository хранит заказы и их строки в PostgreSQL.
// Строки заказа лежат в order_lines и восстанавливаются в исходном порядке
// по колонке position.
type OrderRepository struct {
	db        *sql.DB
	opTimeout time.Duration
}

// NewOrderRepository создаёт репозиторий заказов поверх открытого Store.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{
		db:        store.DB(),
		opTimeout: defaultOpTimeout,
	}
}

var _ domain.OrderRepository = (*OrderRepository)(nil)

// Insert сохраняет новый заказ вместе со строками.
// Второй открытый заказ того же владельца отклоняется частичным уникальным
// индексом на уровне базы.
func (r *OrderRepository) Insert(order domain.Order) error {
	ctx, cancel := r.opContext()
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert order tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, owner_id, total_minor, submitted, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, order.ID, order.OwnerID, order.TotalMinor, order.Submitted, order.Version, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == openOrderIndexName {
				return domain.ErrOpenOrderExists
			}
			return domain.ErrOrderConflict
		}
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}

	if err := insertLines(ctx, tx, order.ID, order.ProductIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert order %s: %w", order.ID, err)
	}

	return nil
}

// Update перезаписывает заказ с оптимистической блокировкой по версии.
// Несовпадение версии возвращает domain.ErrOrderConflict, отсутствующий
// заказ — domain.ErrOrderNotFound.
func (r *OrderRepository) Update(order domain.Order) error {
	ctx, cancel := r.opContext()
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update order tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET total_minor = $1,
		    submitted = $2,
		    version = version + 1,
		    updated_at = $3
		WHERE id = $4 AND version = $5
	`, order.TotalMinor, order.Submitted, order.UpdatedAt, order.ID, order.Version)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows for order %s: %w", order.ID, err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check order %s existence: %w", order.ID, err)
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderConflict
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_lines WHERE order_id = $1`, order.ID,
	); err != nil {
		return fmt.Errorf("delete lines of order %s: %w", order.ID, err)
	}

	if err := insertLines(ctx, tx, order.ID, order.ProductIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update order %s: %w", order.ID, err)
	}

	return nil
}

// Delete удаляет заказ. Строки заказа снимаются каскадом.
func (r *OrderRepository) Delete(orderID string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", orderID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows for order %s: %w", orderID, err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(orderID string) (domain.Order, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	return r.queryOne(ctx, `
		SELECT id, owner_id, total_minor, submitted, version, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID)
}

// GetByOwnerAndID возвращает заказ, только если он принадлежит владельцу.
func (r *OrderRepository) GetByOwnerAndID(ownerID, orderID string) (domain.Order, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	return r.queryOne(ctx, `
		SELECT id, owner_id, total_minor, submitted, version, created_at, updated_at
		FROM orders
		WHERE id = $1 AND owner_id = $2
	`, orderID, ownerID)
}

// ListByOwner возвращает заказы владельца, новые первыми.
func (r *OrderRepository) ListByOwner(ownerID string) ([]domain.Order, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, total_minor, submitted, version, created_at, updated_at
		FROM orders
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list orders of owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders of owner %s: %w", ownerID, err)
	}

	for i := range orders {
		lines, err := r.loadLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].ProductIDs = lines
	}

	return orders, nil
}

// FindOpenByOwner возвращает открытый (не отправленный) заказ владельца.
func (r *OrderRepository) FindOpenByOwner(ownerID string) (domain.Order, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	return r.queryOne(ctx, `
		SELECT id, owner_id, total_minor, submitted, version, created_at, updated_at
		FROM orders
		WHERE owner_id = $1 AND NOT submitted
	`, ownerID)
}

func (r *OrderRepository) queryOne(ctx context.Context, query string, args ...any) (domain.Order, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, err
	}

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.ProductIDs = lines

	return order, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, orderID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load lines of order %s: %w", orderID, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var productID string
		if err := rows.Scan(&productID); err != nil {
			return nil, fmt.Errorf("scan line of order %s: %w", orderID, err)
		}
		lines = append(lines, productID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines of order %s: %w", orderID, err)
	}

	return lines, nil
}

func (r *OrderRepository) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.opTimeout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.OwnerID,
		&order.TotalMinor,
		&order.Submitted,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("scan order row: %w", err)
	}
	return order, nil
}

func insertLines(ctx context.Context, tx *sql.Tx, orderID string, productIDs []string) error {
	for position, productID := range productIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, product_id)
			VALUES ($1, $2, $3)
		`, orderID, position, productID); err != nil {
			return fmt.Errorf("insert line %d of order %s: %w", position, orderID, err)
		}
	}
	return nil
}
