package enums

import "slices"

// OrderStatus labels a consumer order. Any value may replace any other.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pendente"
	OrderStatusActive    OrderStatus = "ativo"
	OrderStatusConfirmed OrderStatus = "confirmado"
	OrderStatusDelivered OrderStatus = "entregue"
	OrderStatusCancelled OrderStatus = "cancelado"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusActive,
	OrderStatusConfirmed,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) IsValid() bool { return slices.Contains(orderStatuses, s) }

func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse("order status", value, orderStatuses)
}
