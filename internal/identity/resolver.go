package identity

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

// Resolver разрешает логин вызывающего (имя пользователя или email)
// во владельца заказов через репозиторий пользователей.
type Resolver struct {
	users  domain.UserRepository
	logger *log.Entry
}

func NewResolver(users domain.UserRepository, logger *log.Entry) *Resolver {
	if logger == nil {
		logger = log.New().WithField("component", "identity")
	}
	return &Resolver{users: users, logger: logger}
}

var _ domain.IdentityResolver = (*Resolver)(nil)

// Resolve возвращает владельца или domain.ErrOwnerNotFound.
// Пустой логин не доходит до хранилища.
func (r *Resolver) Resolve(login string) (domain.Owner, error) {
	if login == "" {
		return domain.Owner{}, domain.ErrOwnerNotFound
	}

	owner, err := r.users.FindByUsernameOrEmail(login)
	if err != nil {
		r.logger.WithError(err).WithField("login", login).Debug("identity lookup failed")
		return domain.Owner{}, err
	}

	return owner, nil
}
