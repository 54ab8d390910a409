package domain

import "fmt"

// FailureKind классифицирует отказ операции жизненного цикла для внешнего
// слоя (который сам решает, как отобразить его на транспортный код).
type FailureKind string

const (
	FailureValidation  FailureKind = "validation"
	FailureNotFound    FailureKind = "not_found"
	FailureConflict    FailureKind = "conflict"
	FailurePersistence FailureKind = "persistence"
	FailureUnexpected  FailureKind = "unexpected"
)

// Rejection — типизированный отказ операции. Любая ошибка коллаборатора
// сводится к Rejection на границе операции; наружу не выходит ничего другого.
type Rejection struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Error реализует error; человекочитаемое сообщение имеет приоритет.
func (r *Rejection) Error() string {
	if r.Message != "" {
		return r.Message
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return string(r.Kind)
}

// Unwrap отдаёт первопричину для errors.Is/errors.As.
func (r *Rejection) Unwrap() error {
	return r.Err
}

// Reject создаёт отказ с классификацией и сообщением для вызывающего.
func Reject(kind FailureKind, message string, cause error) *Rejection {
	return &Rejection{Kind: kind, Message: message, Err: cause}
}

// Rejectf — вариант Reject с форматированием сообщения.
func Rejectf(kind FailureKind, cause error, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Result — единый конверт успешного (в том числе частично успешного) ответа
// операции: заказ после выполнения и человекочитаемый отчёт о том, что
// изменилось (удалённые и не добавленные позиции, пересчёт цены).
type Result struct {
	Order   Order
	Message string
}
