package order

import (
	"fmt"
	"strings"
)

// Тексты ответов пользователю. Операции собирают из них человекочитаемый
// отчёт о том, что именно изменилось в заказе.

const (
	msgOrderCreated       = "Order created successfully."
	msgOrderUpdated       = "Order updated successfully."
	msgProductsRemoved    = "Products removed successfully."
	msgEmptySubmit        = "Cannot submit an empty order, an order should have at least one product."
	msgNothingToDisplay   = "No detailed data can be displayed for products with IDs: "
	msgPriceRecounted     = "Total order price was recounted and the products were removed from your order. Removed product IDs: "
	msgSomeUnavailable    = "Some products from your order are currently unavailable in stock. "
	msgReviewAndResubmit  = "The order was not submitted. Please recheck the order and resubmit it."
	msgOrderNotPersisted  = "Unable to process the request, the order was not saved."
	msgUnexpectedFailure  = "Some inner error occurred. Unable to process your request, please try later or contact the support team."
	msgOpenOrderExistsFmt = "OrderId: %s. Please submit the order above before creating a new one."
)

// joinIDs форматирует список идентификаторов для текста ответа: "a, b, c."
func joinIDs(ids []string) string {
	return strings.Join(ids, ", ") + "."
}

// unavailableProductsMessage описывает выброшенные сверкой позиции.
// Для оформленных заказов позиции не удаляются, поэтому текст другой.
func unavailableProductsMessage(removedIDs []string, submitted bool) string {
	if len(removedIDs) == 0 {
		return ""
	}
	if submitted {
		return msgSomeUnavailable + msgNothingToDisplay + joinIDs(removedIDs)
	}
	return msgSomeUnavailable + msgPriceRecounted + joinIDs(removedIDs)
}

// notAddedMessage объясняет, почему запрошенная позиция не попала в заказ.
func notAddedMessage(line RemovedLine) string {
	if line.Reason == RemovedNotFound {
		return fmt.Sprintf("The product with ID: %s was not added to the order, because it was not found in stock, please check if the ID is correct. ", line.ProductID)
	}
	return fmt.Sprintf("The product with ID: %s was not added to the order, because it is currently unavailable. ", line.ProductID)
}

// createAbortedMessage — текст отказа CreateOrder: первый неразрешимый
// идентификатор прерывает всю операцию.
func createAbortedMessage(line RemovedLine) string {
	if line.Reason == RemovedNotFound {
		return fmt.Sprintf("The product with ID: %s was not found in stock, please check if the ID is correct. Unable to process your order.", line.ProductID)
	}
	return fmt.Sprintf("The product with ID: %s is currently unavailable. Unable to process your order.", line.ProductID)
}

// submitBlockedMessage — отчёт Submit, когда сверка выбросила позиции и
// оформление отложено до повторной проверки пользователем.
func submitBlockedMessage(removedIDs []string) string {
	return fmt.Sprintf("The products with IDs: %s were not found or are currently unavailable. They were removed from your order. ", strings.Join(removedIDs, ", ")) +
		msgReviewAndResubmit
}

// orderInaccessibleMessage — отказ для операций над чужим, отсутствующим или
// уже оформленным заказом.
func orderInaccessibleMessage(orderID string, submitted bool) string {
	if submitted {
		return fmt.Sprintf("The requested order with ID: %s is already submitted. Please start a new order.", orderID)
	}
	return fmt.Sprintf("The requested order with ID: %s was not found.", orderID)
}
