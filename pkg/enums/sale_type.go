package enums

import "slices"

// SaleType selects how a market sells within a cycle.
type SaleType string

const (
	SaleTypeBasket     SaleType = "cesta"
	SaleTypeLot        SaleType = "lote"
	SaleTypeDirectSale SaleType = "venda_direta"
)

var saleTypes = []SaleType{SaleTypeBasket, SaleTypeLot, SaleTypeDirectSale}

func (t SaleType) IsValid() bool { return slices.Contains(saleTypes, t) }

func ParseSaleType(value string) (SaleType, error) {
	return parse("sale type", value, saleTypes)
}
