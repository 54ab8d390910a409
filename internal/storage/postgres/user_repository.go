package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

// UserRepository хранит владельцев заказов в таблице users.
type UserRepository struct {
	db        *sql.DB
	opTimeout time.Duration
}

// NewUserRepository создаёт репозиторий пользователей поверх открытого Store.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{
		db:        store.DB(),
		opTimeout: defaultOpTimeout,
	}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// FindByUsernameOrEmail ищет пользователя сначала по имени, затем по почте.
func (r *UserRepository) FindByUsernameOrEmail(login string) (domain.Owner, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	var owner domain.Owner
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email
		FROM users
		WHERE username = $1 OR email = $1
		ORDER BY (username = $1) DESC
		LIMIT 1
	`, login).Scan(&owner.ID, &owner.Username, &owner.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Owner{}, domain.ErrOwnerNotFound
		}
		return domain.Owner{}, fmt.Errorf("find user by login %s: %w", login, err)
	}

	return owner, nil
}

// Insert сохраняет нового пользователя.
func (r *UserRepository) Insert(owner domain.Owner) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email)
		VALUES ($1, $2, $3)
	`, owner.ID, owner.Username, owner.Email)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", owner.ID, err)
	}

	return nil
}
