package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ecf-api/internal/domain/entity"
)

// ErrorResponse respuesta de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EmitVoucherLineRequest línea de venta del comprobante a emitir.
type EmitVoucherLineRequest struct {
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Impuesto       decimal.Decimal `json:"impuesto"`
	Total          decimal.Decimal `json:"total"`
}

// EmitVoucherRequest petición de emisión de comprobante fiscal.
// Tipo y Serie vacíos usan los valores por defecto de la configuración.
type EmitVoucherRequest struct {
	ConfigID string `json:"config_id"`
	VentaID  string `json:"venta_id"`
	Tipo     string `json:"tipo"`
	Serie    string `json:"serie"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	ITBIS          decimal.Decimal `json:"itbis"`
	OtrosImpuestos decimal.Decimal `json:"otros_impuestos"`
	Total          decimal.Decimal `json:"total"`
	MontoPagado    decimal.Decimal `json:"monto_pagado"`
	MetodoPago     string          `json:"metodo_pago"`

	ClienteNombre    string `json:"cliente_nombre"`
	ClienteDocumento string `json:"cliente_documento"`
	CorreoEnvio      string `json:"correo_envio"`
	TelefonoContacto string `json:"telefono_contacto"`
	Notas            string `json:"notas"`

	Lines []EmitVoucherLineRequest `json:"lineas"`
}

// VoucherResponse representación HTTP del comprobante fiscal.
type VoucherResponse struct {
	ID             string `json:"id"`
	ConfigID       string `json:"config_id"`
	VentaID        string `json:"venta_id"`
	Tipo           string `json:"tipo"`
	Serie          string `json:"serie"`
	Secuencia      int64  `json:"secuencia"`
	NumeroCompleto string `json:"numero_completo"`

	FechaEmision     string `json:"fecha_emision"`
	FechaVencimiento string `json:"fecha_vencimiento,omitempty"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	ITBIS          decimal.Decimal `json:"itbis"`
	OtrosImpuestos decimal.Decimal `json:"otros_impuestos"`
	Total          decimal.Decimal `json:"total"`
	MontoPagado    decimal.Decimal `json:"monto_pagado"`
	MetodoPago     string          `json:"metodo_pago"`

	ClienteNombre    string `json:"cliente_nombre"`
	ClienteDocumento string `json:"cliente_documento"`

	Estado        string `json:"estado"`
	DGIIEstado    string `json:"dgii_estado"`
	DGIITrackID   string `json:"dgii_track_id,omitempty"`
	DGIIEnviadoAt string `json:"dgii_enviado_at,omitempty"`
}

// NewVoucherResponse mapea la entidad a su representación HTTP.
func NewVoucherResponse(v *entity.Voucher) VoucherResponse {
	resp := VoucherResponse{
		ID:             v.ID,
		ConfigID:       v.ConfigID,
		VentaID:        v.VentaID,
		Tipo:           v.Tipo,
		Serie:          v.Serie,
		Secuencia:      v.Secuencia,
		NumeroCompleto: v.NumeroCompleto,
		FechaEmision:   v.FechaEmision.Format("2006-01-02"),
		Subtotal:       v.Subtotal,
		ITBIS:          v.ITBIS,
		OtrosImpuestos: v.OtrosImpuestos,
		Total:          v.Total,
		MontoPagado:    v.MontoPagado,
		MetodoPago:     v.MetodoPago,

		ClienteNombre:    v.ClienteNombre,
		ClienteDocumento: v.ClienteDocumento,

		Estado:      v.Estado,
		DGIIEstado:  v.DGIIEstado,
		DGIITrackID: v.DGIITrackID,
	}
	if v.FechaVencimiento != nil {
		resp.FechaVencimiento = v.FechaVencimiento.Format("2006-01-02")
	}
	if v.DGIIEnviadoAt != nil {
		resp.DGIIEnviadoAt = v.DGIIEnviadoAt.Format(time.RFC3339)
	}
	return resp
}
