package domain

import "time"

// Catalog описывает каталог товаров — внешний источник цен и доступности,
// меняющийся независимо от хранилища заказов.
type Catalog interface {
	// GetByID возвращает товар или ErrProductNotFound.
	GetByID(id string) (Product, error)
	// GetByIDs выполняет пакетный поиск за один обход: в ответе присутствуют
	// только найденные товары, отсутствующие идентификаторы просто опущены.
	GetByIDs(ids []string) (map[string]Product, error)
}

// IdentityResolver разрешает идентичность вызывающего (имя пользователя или
// email) во владельца заказов.
type IdentityResolver interface {
	// Resolve возвращает владельца или ErrOwnerNotFound.
	Resolve(login string) (Owner, error)
}

// EventPublisher публикует события жизненного цикла заказа во внешнюю шину.
type EventPublisher interface {
	// PublishOrderEvent отправляет событие; публикация best-effort, отказ шины
	// не должен проваливать операцию.
	PublishOrderEvent(event OrderEvent) error
}

// OrderEventType определяет тип события жизненного цикла заказа.
type OrderEventType string

const (
	OrderEventCreated     OrderEventType = "order.created"
	OrderEventUpdated     OrderEventType = "order.updated"
	OrderEventSubmitted   OrderEventType = "order.submitted"
	OrderEventUnsubmitted OrderEventType = "order.unsubmitted"
	OrderEventDeleted     OrderEventType = "order.deleted"
	OrderEventReconciled  OrderEventType = "order.lines_reconciled"
)

// OrderEvent — событие жизненного цикла заказа для внешних потребителей.
type OrderEvent struct {
	Type       OrderEventType `json:"event_type"`
	OrderID    string         `json:"order_id"`
	OwnerID    string         `json:"owner_id"`
	TotalMinor int64          `json:"total_minor"`
	Submitted  bool           `json:"submitted"`
	// RemovedProductIDs перечисляет позиции, выброшенные сверкой с каталогом.
	RemovedProductIDs []string  `json:"removed_product_ids,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}
