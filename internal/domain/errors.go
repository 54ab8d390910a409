package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора владельца заказа.
	ErrOwnerRequired = errors.New("owner_id is required")
	// Ошибка отрицательной итоговой цены заказа.
	ErrTotalNegative = errors.New("total_minor must be non-negative")
	// Ошибка пустого идентификатора позиции в заказе.
	ErrProductIDEmpty = errors.New("order line product id must not be empty")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderConflict = errors.New("order version conflict")
	// ErrOpenOrderExists возвращается при попытке создать второй черновой
	// заказ для одного владельца.
	ErrOpenOrderExists = errors.New("owner already has an open order")
	// ErrOrderSubmitted возвращается при попытке изменить оформленный заказ.
	ErrOrderSubmitted = errors.New("order already submitted")
	// ErrEmptyOrder возвращается при попытке оформить заказ без позиций.
	ErrEmptyOrder = errors.New("order must contain at least one product")
	// ErrProductNotFound возвращается каталогом, если товара нет.
	ErrProductNotFound = errors.New("product not found in stock")
	// ErrProductUnavailable помечает товар, временно недоступный для заказа.
	ErrProductUnavailable = errors.New("product currently unavailable")
	// ErrOwnerNotFound возвращается, если владелец не разрешён по логину.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrNotPersisted возвращается, когда запись в хранилище не затронула
	// ни одной строки.
	ErrNotPersisted = errors.New("write affected no records")
)

// IsConflict проверяет, является ли ошибка конфликтом сохранения заказа.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOrderConflict) || errors.Is(err, ErrOpenOrderExists)
}
