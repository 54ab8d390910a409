package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
	"github.com/vladislavdragonenkov/bookshop/internal/metrics"
)

// Service реализует жизненный цикл заказа поверх хранилища заказов и
// внешнего каталога. Один экземпляр обслуживает и пользовательские, и
// административные вызовы: разница выражается областью доступа Scope,
// а не дублированием методов по ролям.
//
// Каждая мутация (и чтение деталей чернового заказа) перед записью заново
// сверяет ранее принятые позиции с каталогом: ставшие недоступными позиции
// выбрасываются, итоговая цена пересчитывается, а отчёт об изменениях
// попадает в сообщение ответа.
type Service struct {
	orders  domain.OrderRepository
	catalog domain.Catalog
	events  domain.EventPublisher // опционален: nil отключает публикацию
	metrics *metrics.OrderMetrics
	logger  *log.Entry
}

// Scope задаёт область доступа вызывающего к чужим заказам.
type Scope struct {
	// OwnerID — владелец, от имени которого выполняется запрос.
	OwnerID string
	// AnyOwner — административная способность читать и менять заказы
	// любого владельца без проверки принадлежности.
	AnyOwner bool
}

// OwnerScope возвращает область доступа обычного пользователя.
func OwnerScope(ownerID string) Scope {
	return Scope{OwnerID: ownerID}
}

// AdminScope возвращает область доступа без проверки владельца.
func AdminScope() Scope {
	return Scope{AnyOwner: true}
}

// Имена операций для логов и метрик.
const (
	opCreate          = "create_order"
	opAddProducts     = "add_products"
	opRemoveProducts  = "remove_products"
	opSubmit          = "submit_order"
	opUnsubmit        = "unsubmit_order"
	opGetDetails      = "get_order_details"
	opListOrders      = "list_orders"
	opHasOpenOrder    = "has_open_order"
	opGetCurrentOrder = "get_current_open_order"
	opDeleteOrder     = "delete_order"
)

// NewService конструирует сервис жизненного цикла заказов. events может быть
// nil — тогда события не публикуются.
func NewService(
	orders domain.OrderRepository,
	catalog domain.Catalog,
	events domain.EventPublisher,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:  orders,
		catalog: catalog,
		events:  events,
		metrics: metrics.NewOrderMetrics(),
		logger:  logger,
	}
}

// NewServiceForTests создаёт сервис без метрик, чтобы тесты не трогали
// глобальный prometheus registerer.
func NewServiceForTests(
	orders domain.OrderRepository,
	catalog domain.Catalog,
	events domain.EventPublisher,
	logger *log.Entry,
) *Service {
	svc := NewService(orders, catalog, events, logger)
	svc.metrics = nil
	return svc
}

// Create создаёт новый черновой заказ владельца из списка позиций.
// Валидация "всё или ничего": первый неразрешимый товар прерывает создание,
// частично собранный заказ не сохраняется. Если у владельца уже есть
// черновой заказ, операция отклоняется с его идентификатором.
func (s *Service) Create(ownerID string, productIDs []string) (domain.Result, error) {
	start := time.Now()

	open, err := s.orders.FindOpenByOwner(ownerID)
	switch {
	case err == nil:
		return domain.Result{}, s.reject(opCreate, start, domain.Rejectf(
			domain.FailureConflict, domain.ErrOpenOrderExists, msgOpenOrderExistsFmt, open.ID))
	case !errors.Is(err, domain.ErrOrderNotFound):
		return domain.Result{}, s.reject(opCreate, start, s.unexpected("lookup open order", err))
	}

	products, rej := s.fetchProducts(productIDs)
	if rej != nil {
		return domain.Result{}, s.reject(opCreate, start, rej)
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		ProductIDs: make([]string, 0, len(productIDs)),
		Submitted:  false,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, id := range productIDs {
		product, ok := products[id]
		if !ok {
			return domain.Result{}, s.reject(opCreate, start, domain.Reject(
				domain.FailureValidation, createAbortedMessage(RemovedLine{ProductID: id, Reason: RemovedNotFound}), domain.ErrProductNotFound))
		}
		if !product.Available {
			return domain.Result{}, s.reject(opCreate, start, domain.Reject(
				domain.FailureValidation, createAbortedMessage(RemovedLine{ProductID: id, Reason: RemovedUnavailable}), domain.ErrProductUnavailable))
		}
		order.ProductIDs = append(order.ProductIDs, product.ID)
		order.TotalMinor += product.PriceMinor
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Result{}, s.reject(opCreate, start, domain.Reject(
			domain.FailureValidation, joinErrors(errs), errs[0]))
	}

	if err := s.orders.Insert(order); err != nil {
		if errors.Is(err, domain.ErrOpenOrderExists) {
			// Гонка create-create закрыта уникальным ограничением хранилища.
			existingID := "unknown"
			if open, lookupErr := s.orders.FindOpenByOwner(ownerID); lookupErr == nil {
				existingID = open.ID
			}
			return domain.Result{}, s.reject(opCreate, start, domain.Rejectf(
				domain.FailureConflict, err, msgOpenOrderExistsFmt, existingID))
		}
		return domain.Result{}, s.reject(opCreate, start, s.persistence("insert order", err))
	}

	s.publishEvent(domain.OrderEventCreated, order, nil)
	s.observe(opCreate, start)
	return domain.Result{Order: order, Message: msgOrderCreated}, nil
}

// AddProducts добавляет позиции в черновой заказ. Сначала существующие
// позиции сверяются с каталогом (недоступные выбрасываются с отчётом),
// затем каждый запрошенный товар добавляется, если доступен, — в отличие от
// Create приём частичный, недобавленные позиции перечисляются в сообщении.
// Итоговая цена пересчитывается заново по всему оставшемуся списку.
func (s *Service) AddProducts(scope Scope, orderID string, productIDs []string) (domain.Result, error) {
	start := time.Now()

	order, rej := s.loadDraft(scope, orderID)
	if rej != nil {
		return domain.Result{}, s.reject(opAddProducts, start, rej)
	}

	// Один обход каталога на операцию: и старые, и новые позиции.
	products, rej := s.fetchProducts(append(append([]string{}, order.ProductIDs...), productIDs...))
	if rej != nil {
		return domain.Result{}, s.reject(opAddProducts, start, rej)
	}

	message := ""
	rec := Reconcile(order.ProductIDs, products)
	if !rec.Clean() {
		message += unavailableProductsMessage(rec.RemovedIDs(), false)
	}

	lines := rec.Retained
	total := rec.TotalMinor
	for _, id := range productIDs {
		product, ok := products[id]
		switch {
		case !ok:
			message += notAddedMessage(RemovedLine{ProductID: id, Reason: RemovedNotFound})
		case !product.Available:
			message += notAddedMessage(RemovedLine{ProductID: id, Reason: RemovedUnavailable})
		default:
			lines = append(lines, product.ID)
			total += product.PriceMinor
		}
	}

	order.ProductIDs = lines
	order.TotalMinor = total
	order.UpdatedAt = time.Now().UTC()

	if rej := s.persistUpdate(order); rej != nil {
		return domain.Result{}, s.reject(opAddProducts, start, rej)
	}
	order.Version++

	s.recordRemovedLines(opAddProducts, len(rec.Removed))
	s.publishEvent(domain.OrderEventUpdated, order, rec.RemovedIDs())
	s.observe(opAddProducts, start)
	return domain.Result{Order: order, Message: message + msgOrderUpdated}, nil
}

// RemoveProducts убирает из чернового заказа все вхождения каждой из
// запрошенных позиций; отсутствующие идентификаторы молча игнорируются,
// поэтому операция идемпотентна. Оставшиеся позиции заново сверяются с
// каталогом, итоговая цена пересчитывается с нуля.
func (s *Service) RemoveProducts(scope Scope, orderID string, productIDs []string) (domain.Result, error) {
	start := time.Now()

	order, rej := s.loadDraft(scope, orderID)
	if rej != nil {
		return domain.Result{}, s.reject(opRemoveProducts, start, rej)
	}

	toRemove := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		toRemove[id] = struct{}{}
	}

	remaining := make([]string, 0, len(order.ProductIDs))
	for _, id := range order.ProductIDs {
		if _, drop := toRemove[id]; drop {
			continue
		}
		remaining = append(remaining, id)
	}

	products, rej := s.fetchProducts(remaining)
	if rej != nil {
		return domain.Result{}, s.reject(opRemoveProducts, start, rej)
	}

	rec := Reconcile(remaining, products)
	message := msgProductsRemoved + " "
	if !rec.Clean() {
		message += unavailableProductsMessage(rec.RemovedIDs(), false)
	}

	order.ProductIDs = rec.Retained
	order.TotalMinor = rec.TotalMinor
	order.UpdatedAt = time.Now().UTC()

	if rej := s.persistUpdate(order); rej != nil {
		return domain.Result{}, s.reject(opRemoveProducts, start, rej)
	}
	order.Version++

	s.recordRemovedLines(opRemoveProducts, len(rec.Removed))
	s.publishEvent(domain.OrderEventUpdated, order, rec.RemovedIDs())
	s.observe(opRemoveProducts, start)
	return domain.Result{Order: order, Message: message}, nil
}

// Submit оформляет черновой заказ. Пустой заказ отклоняется до сверки.
// Если сверка выбросила хотя бы одну позицию, заказ сохраняется с
// обновлёнными позициями и ценой, но остаётся черновым: пользователю
// предлагается перепроверить состав и оформить повторно.
func (s *Service) Submit(scope Scope, orderID string) (domain.Result, error) {
	start := time.Now()

	order, rej := s.loadDraft(scope, orderID)
	if rej != nil {
		return domain.Result{}, s.reject(opSubmit, start, rej)
	}

	if order.Empty() {
		return domain.Result{}, s.reject(opSubmit, start, domain.Reject(
			domain.FailureValidation, msgEmptySubmit, domain.ErrEmptyOrder))
	}

	products, rej := s.fetchProducts(order.ProductIDs)
	if rej != nil {
		return domain.Result{}, s.reject(opSubmit, start, rej)
	}

	rec := Reconcile(order.ProductIDs, products)
	order.ProductIDs = rec.Retained
	order.TotalMinor = rec.TotalMinor
	order.Submitted = rec.Clean()
	order.UpdatedAt = time.Now().UTC()

	if rej := s.persistUpdate(order); rej != nil {
		return domain.Result{}, s.reject(opSubmit, start, rej)
	}
	order.Version++

	if !rec.Clean() {
		s.recordRemovedLines(opSubmit, len(rec.Removed))
		s.publishEvent(domain.OrderEventReconciled, order, rec.RemovedIDs())
		s.observe(opSubmit, start)
		return domain.Result{Order: order, Message: submitBlockedMessage(rec.RemovedIDs())}, nil
	}

	s.publishEvent(domain.OrderEventSubmitted, order, nil)
	s.observe(opSubmit, start)
	return domain.Result{
		Order:   order,
		Message: fmt.Sprintf("Order submitted successfully, at: %s.", order.UpdatedAt.Format(time.RFC3339)),
	}, nil
}

// AdminUnsubmit снимает оформление с заказа без проверки владельца.
func (s *Service) AdminUnsubmit(orderID string) (domain.Result, error) {
	start := time.Now()

	order, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Result{}, s.reject(opUnsubmit, start, domain.Rejectf(
				domain.FailureNotFound, err, "Order with ID: %s was not found.", orderID))
		}
		return domain.Result{}, s.reject(opUnsubmit, start, s.unexpected("load order", err))
	}

	order.Submitted = false
	order.UpdatedAt = time.Now().UTC()

	if rej := s.persistUpdate(order); rej != nil {
		return domain.Result{}, s.reject(opUnsubmit, start, rej)
	}
	order.Version++

	s.publishEvent(domain.OrderEventUnsubmitted, order, nil)
	s.observe(opUnsubmit, start)
	return domain.Result{
		Order:   order,
		Message: fmt.Sprintf("Order: %s successfully unsubmitted.", order.ID),
	}, nil
}

// GetOrderDetails возвращает заказ. Для черновых заказов чтение тоже
// выполняет сверку и сохраняет её результат — недоступные позиции
// выбрасываются, цена пересчитывается, отчёт попадает в сообщение.
// Оформленные заказы возвращаются как есть, с информационной пометкой о
// позициях, по которым нет актуальных данных каталога.
func (s *Service) GetOrderDetails(scope Scope, orderID string) (domain.Result, error) {
	start := time.Now()

	order, rej := s.loadOrder(scope, orderID)
	if rej != nil {
		return domain.Result{}, s.reject(opGetDetails, start, rej)
	}

	products, rej := s.fetchProducts(order.ProductIDs)
	if rej != nil {
		return domain.Result{}, s.reject(opGetDetails, start, rej)
	}

	rec := Reconcile(order.ProductIDs, products)

	if order.Submitted {
		s.observe(opGetDetails, start)
		return domain.Result{
			Order:   order,
			Message: unavailableProductsMessage(rec.RemovedIDs(), true),
		}, nil
	}

	if !rec.Clean() {
		order.ProductIDs = rec.Retained
		order.TotalMinor = rec.TotalMinor
		if rej := s.persistUpdate(order); rej != nil {
			return domain.Result{}, s.reject(opGetDetails, start, rej)
		}
		order.Version++
		s.recordRemovedLines(opGetDetails, len(rec.Removed))
		s.publishEvent(domain.OrderEventReconciled, order, rec.RemovedIDs())
	}

	s.observe(opGetDetails, start)
	return domain.Result{
		Order:   order,
		Message: unavailableProductsMessage(rec.RemovedIDs(), false),
	}, nil
}

// ListOrders возвращает все заказы владельца, новые первыми.
func (s *Service) ListOrders(ownerID string) ([]domain.Order, error) {
	start := time.Now()

	orders, err := s.orders.ListByOwner(ownerID)
	if err != nil {
		return nil, s.reject(opListOrders, start, s.unexpected("list orders", err))
	}

	s.observe(opListOrders, start)
	return orders, nil
}

// HasOpenOrder сообщает, есть ли у владельца черновой заказ.
func (s *Service) HasOpenOrder(ownerID string) (bool, error) {
	start := time.Now()

	_, err := s.orders.FindOpenByOwner(ownerID)
	switch {
	case err == nil:
		s.observe(opHasOpenOrder, start)
		return true, nil
	case errors.Is(err, domain.ErrOrderNotFound):
		s.observe(opHasOpenOrder, start)
		return false, nil
	default:
		return false, s.reject(opHasOpenOrder, start, s.unexpected("lookup open order", err))
	}
}

// GetCurrentOpenOrder возвращает черновой заказ владельца.
func (s *Service) GetCurrentOpenOrder(ownerID string) (domain.Result, error) {
	start := time.Now()

	order, err := s.orders.FindOpenByOwner(ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Result{}, s.reject(opGetCurrentOrder, start, domain.Reject(
				domain.FailureNotFound, "There are no open orders for the current user.", err))
		}
		return domain.Result{}, s.reject(opGetCurrentOrder, start, s.unexpected("lookup open order", err))
	}

	s.observe(opGetCurrentOrder, start)
	return domain.Result{Order: order}, nil
}

// DeleteOrder удаляет заказ в любом состоянии. Операция административная,
// проверка владельца не выполняется.
func (s *Service) DeleteOrder(orderID string) (domain.Result, error) {
	start := time.Now()

	order, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Result{}, s.reject(opDeleteOrder, start, domain.Rejectf(
				domain.FailureNotFound, err, "Order with ID: %s was not found.", orderID))
		}
		return domain.Result{}, s.reject(opDeleteOrder, start, s.unexpected("load order", err))
	}

	if err := s.orders.Delete(order.ID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Result{}, s.reject(opDeleteOrder, start, s.persistence("delete order", domain.ErrNotPersisted))
		}
		return domain.Result{}, s.reject(opDeleteOrder, start, s.unexpected("delete order", err))
	}

	s.publishEvent(domain.OrderEventDeleted, order, nil)
	s.observe(opDeleteOrder, start)
	return domain.Result{Order: order, Message: "The order was deleted successfully."}, nil
}

// loadOrder достаёт заказ с учётом области доступа вызывающего.
func (s *Service) loadOrder(scope Scope, orderID string) (domain.Order, *domain.Rejection) {
	var (
		order domain.Order
		err   error
	)
	if scope.AnyOwner {
		order, err = s.orders.GetByID(orderID)
	} else {
		order, err = s.orders.GetByOwnerAndID(scope.OwnerID, orderID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, domain.Reject(
				domain.FailureNotFound, orderInaccessibleMessage(orderID, false), err)
		}
		return domain.Order{}, s.unexpected("load order", err)
	}
	return order, nil
}

// loadDraft достаёт заказ и требует, чтобы он был черновым.
func (s *Service) loadDraft(scope Scope, orderID string) (domain.Order, *domain.Rejection) {
	order, rej := s.loadOrder(scope, orderID)
	if rej != nil {
		return domain.Order{}, rej
	}
	if order.Submitted {
		return domain.Order{}, domain.Reject(
			domain.FailureConflict, orderInaccessibleMessage(orderID, true), domain.ErrOrderSubmitted)
	}
	return order, nil
}

// fetchProducts выполняет один пакетный обход каталога по уникальным
// идентификаторам. Отсутствующие товары в ответе просто опущены.
func (s *Service) fetchProducts(ids []string) (map[string]domain.Product, *domain.Rejection) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if len(unique) == 0 {
		return map[string]domain.Product{}, nil
	}

	products, err := s.catalog.GetByIDs(unique)
	if err != nil {
		return nil, s.unexpected("catalog lookup", err)
	}
	return products, nil
}

// persistUpdate сохраняет заказ, сводя ошибки хранилища к классификации.
// Конфликт версий означает, что запись не затронула ни одной строки.
func (s *Service) persistUpdate(order domain.Order) *domain.Rejection {
	err := s.orders.Update(order)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrOrderNotFound):
		return domain.Reject(domain.FailureNotFound, orderInaccessibleMessage(order.ID, false), err)
	case errors.Is(err, domain.ErrOrderConflict):
		return s.persistence("update order", err)
	default:
		return s.unexpected("update order", err)
	}
}

func (s *Service) persistence(op string, err error) *domain.Rejection {
	s.logger.WithError(err).WithField("op", op).Warn("order was not persisted")
	return domain.Reject(domain.FailurePersistence, msgOrderNotPersisted, err)
}

func (s *Service) unexpected(op string, err error) *domain.Rejection {
	s.logger.WithError(err).WithField("op", op).Error("unexpected collaborator failure")
	return domain.Reject(domain.FailureUnexpected, msgUnexpectedFailure, err)
}

// reject логирует отказ, учитывает его в метриках и возвращает как error.
func (s *Service) reject(op string, start time.Time, rej *domain.Rejection) error {
	s.logger.WithFields(log.Fields{
		"op":   op,
		"kind": string(rej.Kind),
	}).Warn(rej.Error())
	if s.metrics != nil {
		s.metrics.RecordRejection(op, string(rej.Kind))
		s.metrics.RecordDuration(op, time.Since(start))
	}
	return rej
}

// observe учитывает успешное выполнение операции.
func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOperation(op)
		s.metrics.RecordDuration(op, time.Since(start))
	}
}

func (s *Service) recordRemovedLines(op string, count int) {
	if s.metrics != nil && count > 0 {
		s.metrics.RecordRemovedLines(op, count)
	}
}

// publishEvent отправляет событие жизненного цикла best-effort.
func (s *Service) publishEvent(eventType domain.OrderEventType, order domain.Order, removedIDs []string) {
	if s.events == nil {
		return
	}
	event := domain.OrderEvent{
		Type:              eventType,
		OrderID:           order.ID,
		OwnerID:           order.OwnerID,
		TotalMinor:        order.TotalMinor,
		Submitted:         order.Submitted,
		RemovedProductIDs: removedIDs,
		Timestamp:         time.Now().UTC(),
	}
	if err := s.events.PublishOrderEvent(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": string(eventType),
			"order_id":   order.ID,
		}).Warn("failed to publish order event")
	}
}

// joinErrors собирает список нарушенных инвариантов в одно сообщение.
func joinErrors(errs []error) string {
	msg := ""
	for i, err := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}
