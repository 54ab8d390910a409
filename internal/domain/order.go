package domain

import "time"

// Order агрегирует состояние заказа книжного магазина и список его позиций.
// Позиции хранятся как последовательность идентификаторов товаров; порядок
// добавления сохраняется, дубликаты допустимы (каждое вхождение оплачивается
// отдельно).
type Order struct {
	ID      string
	OwnerID string
	// ProductIDs — упорядоченный список позиций заказа.
	ProductIDs []string
	// TotalMinor — итоговая цена в минимальных денежных единицах,
	// по состоянию на последнюю сверку с каталогом.
	TotalMinor int64
	// Submitted — true после успешного оформления; такой заказ неизменяем,
	// кроме административного снятия оформления.
	Submitted bool
	// Version используется для optimistic locking при сохранении.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Draft сообщает, находится ли заказ в черновом (изменяемом) состоянии.
func (o *Order) Draft() bool {
	return !o.Submitted
}

// Empty сообщает, что в заказе нет ни одной позиции.
func (o *Order) Empty() bool {
	return len(o.ProductIDs) == 0
}

// ContainsProduct проверяет наличие хотя бы одного вхождения товара.
func (o *Order) ContainsProduct(productID string) bool {
	for _, id := range o.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.OwnerID == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrTotalNegative)
	}
	for _, id := range o.ProductIDs {
		if id == "" {
			errs = append(errs, ErrProductIDEmpty)
			break
		}
	}

	return errs
}
