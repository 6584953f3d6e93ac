// Taxonomía cerrada de errores de la integración DGII. Cada capa envuelve
// solo los errores a los que aporta significado; la causa original siempre
// queda accesible vía errors.Is / errors.As.

package dgii

import "errors"

// Errores centinela de configuración de secretos.
var (
	// ErrSecretsNotConfigured faltan las variables requeridas para localizar
	// y descifrar el certificado (DGII_CERT_PATH, DGII_CERT_KEY, DGII_CERT_PASSWORD_B64).
	ErrSecretsNotConfigured = errors.New("dgii: variables DGII_CERT_PATH, DGII_CERT_KEY y DGII_CERT_PASSWORD_B64 son requeridas")

	// ErrEncryptionBackendMissing no hay backend de descifrado disponible.
	ErrEncryptionBackendMissing = errors.New("dgii: no hay backend de descifrado para el certificado")
)

// SecretsError error genérico cargando/descifrando los secretos del certificado.
type SecretsError struct {
	Msg string
	Err error
}

func (e *SecretsError) Error() string {
	if e.Err != nil {
		return "dgii: secretos: " + e.Msg + ": " + e.Err.Error()
	}
	return "dgii: secretos: " + e.Msg
}

func (e *SecretsError) Unwrap() error { return e.Err }

// SignerError fallo cargando el certificado o firmando el XML.
// Requiere intervención manual (certificado o payload corruptos).
type SignerError struct {
	Msg string
	Err error
}

func (e *SignerError) Error() string {
	if e.Err != nil {
		return "dgii: firma: " + e.Msg + ": " + e.Err.Error()
	}
	return "dgii: firma: " + e.Msg
}

func (e *SignerError) Unwrap() error { return e.Err }

// AuthError fallo del flujo OAuth contra la DGII (credenciales o endpoint).
type AuthError struct {
	Msg string
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "dgii: auth: " + e.Msg + ": " + e.Err.Error()
	}
	return "dgii: auth: " + e.Msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// ClientError fallo del cliente HTTP autenticado (transporte o auth);
// potencialmente transitorio.
type ClientError struct {
	Msg string
	Err error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return "dgii: cliente: " + e.Msg + ": " + e.Err.Error()
	}
	return "dgii: cliente: " + e.Msg
}

func (e *ClientError) Unwrap() error { return e.Err }
