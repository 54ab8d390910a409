package order_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
	"github.com/vladislavdragonenkov/bookshop/internal/service/order"
	"github.com/vladislavdragonenkov/bookshop/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Уменьшаем шум в тестах
	return logger.WithField("component", "test")
}

// eventRecorder собирает опубликованные события жизненного цикла.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (r *eventRecorder) PublishOrderEvent(event domain.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) types() []domain.OrderEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.OrderEventType, 0, len(r.events))
	for _, event := range r.events {
		result = append(result, event.Type)
	}
	return result
}

type fixture struct {
	service *order.Service
	orders  domain.OrderRepository
	catalog *memory.Catalog
	events  *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := memory.NewCatalog()
	catalog.Put(domain.Product{ID: "book-a", Title: "A", PriceMinor: 1000, Available: true})
	catalog.Put(domain.Product{ID: "book-b", Title: "B", PriceMinor: 1500, Available: true})
	catalog.Put(domain.Product{ID: "book-c", Title: "C", PriceMinor: 700, Available: true})
	catalog.Put(domain.Product{ID: "book-x", Title: "X", PriceMinor: 900, Available: false})

	orders := memory.NewOrderRepository()
	events := &eventRecorder{}
	service := order.NewServiceForTests(orders, catalog, events, loggerForTests())

	return &fixture{service: service, orders: orders, catalog: catalog, events: events}
}

func requireRejection(t *testing.T, err error, kind domain.FailureKind) *domain.Rejection {
	t.Helper()

	var rej *domain.Rejection
	require.Error(t, err)
	require.True(t, errors.As(err, &rej), "expected *domain.Rejection, got %T", err)
	require.Equal(t, kind, rej.Kind)
	return rej
}

func TestCreate_SumsPricesOfAvailableProducts(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Create("owner-1", []string{"book-a", "book-b"})
	require.NoError(t, err)

	require.Equal(t, []string{"book-a", "book-b"}, result.Order.ProductIDs)
	require.Equal(t, int64(2500), result.Order.TotalMinor)
	require.False(t, result.Order.Submitted)
	require.NotEmpty(t, result.Order.ID)
	require.Contains(t, result.Message, "Order created successfully")

	stored, err := f.orders.GetByID(result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2500), stored.TotalMinor)

	require.Equal(t, []domain.OrderEventType{domain.OrderEventCreated}, f.events.types())
}

func TestCreate_RejectsWhenOpenOrderExists(t *testing.T) {
	f := newFixture(t)

	first, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)

	_, err = f.service.Create("owner-1", []string{"book-b"})
	rej := requireRejection(t, err, domain.FailureConflict)
	require.Contains(t, rej.Message, first.Order.ID)

	// Другой владелец не задет.
	_, err = f.service.Create("owner-2", []string{"book-b"})
	require.NoError(t, err)
}

func TestCreate_AllOrNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create("owner-1", []string{"book-a", "book-x"})
	rej := requireRejection(t, err, domain.FailureValidation)
	require.Contains(t, rej.Message, "book-x")
	require.Contains(t, rej.Message, "currently unavailable")

	_, err = f.service.Create("owner-1", []string{"book-a", "ghost"})
	rej = requireRejection(t, err, domain.FailureValidation)
	require.Contains(t, rej.Message, "ghost")
	require.Contains(t, rej.Message, "not found in stock")

	// Частично собранный заказ не сохраняется.
	orders, listErr := f.service.ListOrders("owner-1")
	require.NoError(t, listErr)
	require.Empty(t, orders)
}

func TestCreate_DuplicateIDsPricedPerOccurrence(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Create("owner-1", []string{"book-a", "book-a"})
	require.NoError(t, err)
	require.Equal(t, []string{"book-a", "book-a"}, result.Order.ProductIDs)
	require.Equal(t, int64(2000), result.Order.TotalMinor)
}

func TestAddProducts_DropsStaleLinesAndAppendsNew(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a", "book-b"})
	require.NoError(t, err)

	// book-a становится недоступной между операциями.
	f.catalog.SetAvailable("book-a", false)

	result, err := f.service.AddProducts(order.OwnerScope("owner-1"), created.Order.ID, []string{"book-c"})
	require.NoError(t, err)

	require.Equal(t, []string{"book-b", "book-c"}, result.Order.ProductIDs)
	require.Equal(t, int64(2200), result.Order.TotalMinor)
	require.Contains(t, result.Message, "book-a")
	require.Contains(t, result.Message, "Removed product IDs")
	require.Contains(t, result.Message, "Order updated successfully")
}

func TestAddProducts_PartialAccept(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)

	result, err := f.service.AddProducts(order.OwnerScope("owner-1"), created.Order.ID, []string{"book-b", "book-x", "ghost"})
	require.NoError(t, err)

	require.Equal(t, []string{"book-a", "book-b"}, result.Order.ProductIDs)
	require.Equal(t, int64(2500), result.Order.TotalMinor)
	require.Contains(t, result.Message, "book-x was not added to the order, because it is currently unavailable")
	require.Contains(t, result.Message, "ghost was not added to the order, because it was not found in stock")
}

func TestAddProducts_RepricesFromCatalog(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)

	// Цена меняется в каталоге; итог пересчитывается авторитетно, а не
	// инкрементально от старого значения.
	f.catalog.SetPrice("book-a", 1300)

	result, err := f.service.AddProducts(order.OwnerScope("owner-1"), created.Order.ID, []string{"book-c"})
	require.NoError(t, err)
	require.Equal(t, int64(2000), result.Order.TotalMinor)
}

func TestAddProducts_RejectsForeignAndSubmittedOrders(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)

	_, err = f.service.AddProducts(order.OwnerScope("owner-2"), created.Order.ID, []string{"book-b"})
	requireRejection(t, err, domain.FailureNotFound)

	_, err = f.service.Submit(order.OwnerScope("owner-1"), created.Order.ID)
	require.NoError(t, err)

	_, err = f.service.AddProducts(order.OwnerScope("owner-1"), created.Order.ID, []string{"book-b"})
	rej := requireRejection(t, err, domain.FailureConflict)
	require.Contains(t, rej.Message, "already submitted")
}

func TestRemoveProducts_Idempotent(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a", "book-b", "book-c"})
	require.NoError(t, err)
	scope := order.OwnerScope("owner-1")

	first, err := f.service.RemoveProducts(scope, created.Order.ID, []string{"book-b"})
	require.NoError(t, err)
	require.Equal(t, []string{"book-a", "book-c"}, first.Order.ProductIDs)
	require.Equal(t, int64(1700), first.Order.TotalMinor)

	// Повторное удаление того же id и удаление отсутствующего — no-op.
	second, err := f.service.RemoveProducts(scope, created.Order.ID, []string{"book-b", "ghost"})
	require.NoError(t, err)
	require.Equal(t, first.Order.ProductIDs, second.Order.ProductIDs)
	require.Equal(t, first.Order.TotalMinor, second.Order.TotalMinor)
}

func TestRemoveProducts_RemovesEveryOccurrence(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a", "book-b", "book-a"})
	require.NoError(t, err)

	result, err := f.service.RemoveProducts(order.OwnerScope("owner-1"), created.Order.ID, []string{"book-a"})
	require.NoError(t, err)
	require.Equal(t, []string{"book-b"}, result.Order.ProductIDs)
	require.Equal(t, int64(1500), result.Order.TotalMinor)
}

func TestRemoveProducts_RevalidatesRemainingLines(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a", "book-b", "book-c"})
	require.NoError(t, err)

	// book-b устаревает; удаление book-c должно выбросить и book-b.
	f.catalog.SetAvailable("book-b", false)

	result, err := f.service.RemoveProducts(order.OwnerScope("owner-1"), created.Order.ID, []string{"book-c"})
	require.NoError(t, err)
	require.Equal(t, []string{"book-a"}, result.Order.ProductIDs)
	require.Equal(t, int64(1000), result.Order.TotalMinor)
	require.Contains(t, result.Message, "book-b")
}

func TestSubmit_BlocksWhenLinesDropped(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a", "book-b"})
	require.NoError(t, err)

	f.catalog.SetAvailable("book-b", false)

	result, err := f.service.Submit(order.OwnerScope("owner-1"), created.Order.ID)
	require.NoError(t, err)

	require.False(t, result.Order.Submitted)
	require.Equal(t, []string{"book-a"}, result.Order.ProductIDs)
	require.Equal(t, int64(1000), result.Order.TotalMinor)
	require.Contains(t, result.Message, "book-b")
	require.Contains(t, result.Message, "resubmit")

	// Повторное оформление после пересмотра проходит.
	resubmitted, err := f.service.Submit(order.OwnerScope("owner-1"), created.Order.ID)
	require.NoError(t, err)
	require.True(t, resubmitted.Order.Submitted)
	require.Contains(t, resubmitted.Message, "Order submitted successfully")
}

func TestSubmit_EmptyOrderRejectedBeforeReconciliation(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)
	scope := order.OwnerScope("owner-1")

	_, err = f.service.RemoveProducts(scope, created.Order.ID, []string{"book-a"})
	require.NoError(t, err)

	_, err = f.service.Submit(scope, created.Order.ID)
	rej := requireRejection(t, err, domain.FailureValidation)
	require.Contains(t, rej.Message, "empty order")
}

func TestSubmit_AlreadySubmittedConflicts(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)
	scope := order.OwnerScope("owner-1")

	_, err = f.service.Submit(scope, created.Order.ID)
	require.NoError(t, err)

	_, err = f.service.Submit(scope, created.Order.ID)
	requireRejection(t, err, domain.FailureConflict)
}

func TestAdminUnsubmit(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)
	_, err = f.service.Submit(order.OwnerScope("owner-1"), created.Order.ID)
	require.NoError(t, err)

	// Без проверки владельца.
	result, err := f.service.AdminUnsubmit(created.Order.ID)
	require.NoError(t, err)
	require.False(t, result.Order.Submitted)
	require.Contains(t, result.Message, "successfully unsubmitted")

	_, err = f.service.AdminUnsubmit("missing-order")
	requireRejection(t, err, domain.FailureNotFound)
}

func TestGetOrderDetails_PersistsReconciliationForDrafts(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a", "book-b"})
	require.NoError(t, err)

	f.catalog.SetAvailable("book-a", false)

	result, err := f.service.GetOrderDetails(order.OwnerScope("owner-1"), created.Order.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"book-b"}, result.Order.ProductIDs)
	require.Equal(t, int64(1500), result.Order.TotalMinor)
	require.Contains(t, result.Message, "book-a")

	// Побочный эффект чтения сохранён в хранилище.
	stored, err := f.orders.GetByID(created.Order.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"book-b"}, stored.ProductIDs)
	require.Equal(t, int64(1500), stored.TotalMinor)
}

func TestGetOrderDetails_SubmittedOrderReturnedAsIs(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a", "book-b"})
	require.NoError(t, err)
	_, err = f.service.Submit(order.OwnerScope("owner-1"), created.Order.ID)
	require.NoError(t, err)

	f.catalog.SetAvailable("book-a", false)

	result, err := f.service.GetOrderDetails(order.OwnerScope("owner-1"), created.Order.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"book-a", "book-b"}, result.Order.ProductIDs)
	require.Equal(t, int64(2500), result.Order.TotalMinor)
	require.Contains(t, result.Message, "No detailed data can be displayed")

	stored, err := f.orders.GetByID(created.Order.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"book-a", "book-b"}, stored.ProductIDs)
}

func TestGetOrderDetails_AdminScopeBypassesOwnership(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)

	_, err = f.service.GetOrderDetails(order.OwnerScope("owner-2"), created.Order.ID)
	requireRejection(t, err, domain.FailureNotFound)

	result, err := f.service.GetOrderDetails(order.AdminScope(), created.Order.ID)
	require.NoError(t, err)
	require.Equal(t, created.Order.ID, result.Order.ID)
}

func TestOpenOrderQueries(t *testing.T) {
	f := newFixture(t)

	has, err := f.service.HasOpenOrder("owner-1")
	require.NoError(t, err)
	require.False(t, has)

	_, err = f.service.GetCurrentOpenOrder("owner-1")
	requireRejection(t, err, domain.FailureNotFound)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)

	has, err = f.service.HasOpenOrder("owner-1")
	require.NoError(t, err)
	require.True(t, has)

	current, err := f.service.GetCurrentOpenOrder("owner-1")
	require.NoError(t, err)
	require.Equal(t, created.Order.ID, current.Order.ID)

	_, err = f.service.Submit(order.OwnerScope("owner-1"), created.Order.ID)
	require.NoError(t, err)

	has, err = f.service.HasOpenOrder("owner-1")
	require.NoError(t, err)
	require.False(t, has)
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)

	created, err := f.service.Create("owner-1", []string{"book-a"})
	require.NoError(t, err)

	result, err := f.service.DeleteOrder(created.Order.ID)
	require.NoError(t, err)
	require.Equal(t, created.Order.ID, result.Order.ID)
	require.Contains(t, result.Message, "deleted successfully")

	_, err = f.service.DeleteOrder(created.Order.ID)
	requireRejection(t, err, domain.FailureNotFound)
}

func TestLifecycleEventsPublished(t *testing.T) {
	f := newFixture(t)
	scope := order.OwnerScope("owner-1")

	created, err := f.service.Create("owner-1", []string{"book-a", "book-b"})
	require.NoError(t, err)
	_, err = f.service.AddProducts(scope, created.Order.ID, []string{"book-c"})
	require.NoError(t, err)
	_, err = f.service.Submit(scope, created.Order.ID)
	require.NoError(t, err)
	_, err = f.service.AdminUnsubmit(created.Order.ID)
	require.NoError(t, err)
	_, err = f.service.DeleteOrder(created.Order.ID)
	require.NoError(t, err)

	require.Equal(t, []domain.OrderEventType{
		domain.OrderEventCreated,
		domain.OrderEventUpdated,
		domain.OrderEventSubmitted,
		domain.OrderEventUnsubmitted,
		domain.OrderEventDeleted,
	}, f.events.types())
}

func TestRejectionMessagesAreHumanReadable(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddProducts(order.OwnerScope("owner-1"), "missing-order", []string{"book-a"})
	rej := requireRejection(t, err, domain.FailureNotFound)
	require.True(t, strings.HasPrefix(rej.Message, "The requested order with ID: missing-order"), rej.Message)
}
