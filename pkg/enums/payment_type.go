package enums

import "slices"

// PaymentType says which side of the market a settlement payment belongs to.
type PaymentType string

const (
	PaymentTypeSupplier PaymentType = "fornecedor"
	PaymentTypeConsumer PaymentType = "consumidor"
)

var paymentTypes = []PaymentType{PaymentTypeSupplier, PaymentTypeConsumer}

func (t PaymentType) IsValid() bool { return slices.Contains(paymentTypes, t) }

func ParsePaymentType(value string) (PaymentType, error) {
	return parse("payment type", value, paymentTypes)
}
