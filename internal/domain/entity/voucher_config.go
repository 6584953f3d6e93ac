package entity

import "time"

// Ambientes del API DGII.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Tipos de comprobante fiscal (e-CF) soportados.
const (
	TipoB01 = "B01" // Crédito Fiscal
	TipoCF2 = "CF2" // Consumidor final
	TipoCF3 = "CF3" // Regímenes especiales
	TipoB14 = "B14" // Gastos menores
	TipoB15 = "B15" // Regímenes especiales
)

// VoucherConfig es la configuración del contribuyente para emitir comprobantes
// fiscales electrónicos. La gestiona el operador (capa externa); este núcleo
// solo la lee, salvo por el contador secuencia_siguiente que se incrementa
// bajo lock de fila al emitir.
type VoucherConfig struct {
	ID                  string
	NombreContribuyente string
	RNC                 string
	CorreoContacto      string
	TelefonoContacto    string
	TipoPorDefecto      string
	SeriePorDefecto     string
	SecuenciaSiguiente  int64
	DiasVencimiento     int
	EmitirAutomatico    bool
	APIEnvironment      string // sandbox | production

	// Endpoints del API DGII. Solo auth y recepción se ejercen en el envío;
	// el resto forma parte de la superficie de configuración.
	APIBaseURL               string
	APIAuthURL               string
	APISubmissionURL         string
	APIStatusURL             string
	APIDirectoryURL          string
	APIVoidURL               string
	APICommercialApprovalURL string

	// Credenciales OAuth2 (client_credentials). Nunca se registran en logs.
	APIClientID     string
	APIClientSecret string

	// Referencia al certificado de firma. La ruta y la contraseña reales se
	// resuelven vía variables de entorno (ver pkg/config); aquí solo queda
	// la referencia operativa.
	CertificadoAlias    string
	CertificadoPath     string
	CertificadoPassword string

	Observaciones string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
