package enums

import "slices"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pendente"
	PaymentStatusPaid      PaymentStatus = "pago"
	PaymentStatusCancelled PaymentStatus = "cancelado"
)

var paymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled}

func (s PaymentStatus) IsValid() bool { return slices.Contains(paymentStatuses, s) }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse("payment status", value, paymentStatuses)
}

// IsTerminal is true for pago and cancelado. Only pendente payments change status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCancelled
}
