package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Insert сохраняет новый заказ. Возвращает ErrOpenOrderExists, если у
	// владельца уже есть черновой заказ (инвариант закрыт на уровне хранилища).
	Insert(order Order) error
	// Update применяет обновления к заказу с учётом optimistic locking:
	// ErrOrderNotFound, если записи нет, ErrOrderConflict при гонке версий.
	Update(order Order) error
	// Delete удаляет заказ; ErrOrderNotFound, если удалять нечего.
	Delete(id string) error
	// GetByID возвращает заказ по идентификатору или ErrOrderNotFound.
	GetByID(id string) (Order, error)
	// GetByOwnerAndID возвращает заказ, только если он принадлежит владельцу.
	GetByOwnerAndID(ownerID, id string) (Order, error)
	// ListByOwner возвращает все заказы владельца, новые первыми.
	ListByOwner(ownerID string) ([]Order, error)
	// FindOpenByOwner возвращает черновой заказ владельца или ErrOrderNotFound.
	FindOpenByOwner(ownerID string) (Order, error)
}

// UserRepository описывает доступ к учётным записям для разрешения владельца
// по имени пользователя или email.
type UserRepository interface {
	FindByUsernameOrEmail(login string) (Owner, error)
}
