package domain

// Product описывает товар каталога (книгу). Для ядра заказов каталог
// доступен только на чтение: цена и доступность меняются независимо.
type Product struct {
	ID     string
	Title  string
	Author string
	// PriceMinor — цена в минимальных денежных единицах.
	PriceMinor int64
	// Available — доступен ли товар для заказа прямо сейчас.
	Available bool
}

// Owner — владелец заказа, разрешённый по имени пользователя или email.
type Owner struct {
	ID       string
	Username string
	Email    string
}
