package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

// userRepositoryInMemory хранит учётные записи для разрешения владельцев.
type userRepositoryInMemory struct {
	mu    sync.RWMutex
	users []domain.Owner
}

// NewUserRepository возвращает in-memory реализацию UserRepository.
func NewUserRepository(users ...domain.Owner) domain.UserRepository {
	repo := &userRepositoryInMemory{}
	repo.users = append(repo.users, users...)
	return repo
}

// FindByUsernameOrEmail ищет владельца сперва по имени пользователя,
// затем по email.
func (r *userRepositoryInMemory) FindByUsernameOrEmail(login string) (domain.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == login {
			return user, nil
		}
	}
	for _, user := range r.users {
		if user.Email == login {
			return user, nil
		}
	}
	return domain.Owner{}, domain.ErrOwnerNotFound
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
