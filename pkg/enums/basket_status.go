package enums

import "slices"

// BasketStatus marks whether a basket type can be bound to new cycles.
type BasketStatus string

const (
	BasketStatusActive   BasketStatus = "ativo"
	BasketStatusInactive BasketStatus = "inativo"
)

var basketStatuses = []BasketStatus{BasketStatusActive, BasketStatusInactive}

func (s BasketStatus) IsValid() bool { return slices.Contains(basketStatuses, s) }

func ParseBasketStatus(value string) (BasketStatus, error) {
	return parse("basket status", value, basketStatuses)
}
