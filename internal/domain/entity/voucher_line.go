package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherLine es un concepto incluido en un comprobante fiscal.
type VoucherLine struct {
	ID        string
	VoucherID string

	Descripcion    string
	Cantidad       decimal.Decimal
	PrecioUnitario decimal.Decimal
	Subtotal       decimal.Decimal
	Impuesto       decimal.Decimal
	Total          decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}
