package order

import "github.com/vladislavdragonenkov/bookshop/internal/domain"

// RemoveReason уточняет, почему позиция выброшена при сверке с каталогом.
// Вызывающие обрабатывают обе причины одинаково, различается только текст
// сообщения.
type RemoveReason int

const (
	// RemovedNotFound — товара больше нет в каталоге.
	RemovedNotFound RemoveReason = iota
	// RemovedUnavailable — товар есть, но помечен недоступным.
	RemovedUnavailable
)

// RemovedLine описывает одну выброшенную позицию.
type RemovedLine struct {
	ProductID string
	Reason    RemoveReason
}

// ReconcileResult — итог сверки списка позиций с каталогом.
type ReconcileResult struct {
	// Retained — позиции, прошедшие сверку, в исходном порядке.
	Retained []string
	// Removed — выброшенные позиции с причинами.
	Removed []RemovedLine
	// TotalMinor — пересчитанная итоговая цена удержанных позиций.
	TotalMinor int64
}

// Clean сообщает, что сверка ничего не выбросила.
func (r ReconcileResult) Clean() bool {
	return len(r.Removed) == 0
}

// RemovedIDs возвращает идентификаторы выброшенных позиций в исходном порядке.
func (r ReconcileResult) RemovedIDs() []string {
	if len(r.Removed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Removed))
	for _, line := range r.Removed {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// Reconcile сверяет упорядоченный список позиций со снимком каталога:
// позиция удерживается, если товар найден и доступен, иначе выбрасывается.
// Функция чистая — решение о сохранении результата принимает вызывающий.
func Reconcile(lines []string, products map[string]domain.Product) ReconcileResult {
	result := ReconcileResult{
		Retained: make([]string, 0, len(lines)),
	}

	for _, id := range lines {
		product, ok := products[id]
		switch {
		case !ok:
			result.Removed = append(result.Removed, RemovedLine{ProductID: id, Reason: RemovedNotFound})
		case !product.Available:
			result.Removed = append(result.Removed, RemovedLine{ProductID: id, Reason: RemovedUnavailable})
		default:
			result.Retained = append(result.Retained, id)
			result.TotalMinor += product.PriceMinor
		}
	}

	return result
}
