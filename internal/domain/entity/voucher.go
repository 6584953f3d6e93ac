package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de ciclo de vida del comprobante.
const (
	EstadoBorrador = "borrador"
	EstadoEmitido  = "emitido"
	EstadoAnulado  = "anulado"
)

// Estados de envío a la DGII. El estado avanza por intento:
// pendiente_envio → {enviado | error_xml | error_envio | pendiente_config};
// un intento posterior puede llevar un estado de error a enviado.
const (
	EnvioPendiente       = "pendiente_envio"
	EnvioEnviado         = "enviado"
	EnvioErrorXML        = "error_xml"
	EnvioErrorEnvio      = "error_envio"
	EnvioPendienteConfig = "pendiente_config"
)

// Voucher es el comprobante fiscal asociado a una venta finalizada.
// Lo crea el flujo de ventas (externo); este núcleo solo muta los campos
// de envío DGII (dgii_*).
type Voucher struct {
	ID       string
	ConfigID string
	VentaID  string

	Tipo           string
	Serie          string
	Secuencia      int64
	NumeroCompleto string // serie-secuencia con relleno de ceros

	FechaEmision     time.Time
	FechaVencimiento *time.Time

	Subtotal       decimal.Decimal
	ITBIS          decimal.Decimal
	OtrosImpuestos decimal.Decimal
	Total          decimal.Decimal
	MontoPagado    decimal.Decimal
	MetodoPago     string

	ClienteNombre    string
	ClienteDocumento string
	CorreoEnvio      string
	TelefonoContacto string

	Estado string
	Notas  string

	// Resultado del envío a la DGII.
	DGIIEstado    string
	DGIITrackID   string
	DGIIRespuesta []byte // JSON crudo devuelto por el API
	DGIIEnviadoAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComposeNumero arma el número legal completo: serie-secuencia (8 dígitos).
func ComposeNumero(serie string, secuencia int64) string {
	return fmt.Sprintf("%s-%08d", serie, secuencia)
}
