// Carga del contenedor PKCS#12 (llave privada + certificado) desde la bóveda.

package dgii

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"sync"

	"golang.org/x/crypto/pkcs12"
)

// CertificateBundle contenido del PKCS#12 listo para firmar. La llave nunca
// se exporta fuera del paquete de firma.
type CertificateBundle struct {
	PrivateKey  *rsa.PrivateKey
	Certificate *x509.Certificate
	CACerts     []*x509.Certificate // pkcs12.Decode devuelve solo la hoja; queda nil
	Alias       string
}

// CertificateLoader puerto para obtener el bundle de firma. La implementación
// concreta usa PKCS#12; en tests se inyecta un loader con material generado.
type CertificateLoader interface {
	Load() (*CertificateBundle, error)
}

// P12BundleLoader implementa CertificateLoader sobre la SecretsVault,
// cacheando el bundle tras la primera carga.
type P12BundleLoader struct {
	vault *SecretsVault

	mu     sync.Mutex
	bundle *CertificateBundle
}

// NewP12BundleLoader construye el loader.
func NewP12BundleLoader(vault *SecretsVault) *P12BundleLoader {
	return &P12BundleLoader{vault: vault}
}

// Load desempaqueta el PKCS#12 usando los secretos configurados.
// Cualquier fallo de la bóveda se reporta como SignerError conservando la
// causa (errors.Is sigue encontrando ErrSecretsNotConfigured).
func (l *P12BundleLoader) Load() (*CertificateBundle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bundle != nil {
		return l.bundle, nil
	}

	secrets, err := l.vault.Get()
	if err != nil {
		return nil, &SignerError{Msg: "no se pudieron obtener los secretos del certificado", Err: err}
	}

	priv, cert, err := pkcs12.Decode(secrets.CertificateBytes, secrets.Password)
	if err != nil {
		return nil, &SignerError{Msg: "no se pudo cargar el certificado PKCS#12", Err: err}
	}
	if cert == nil || priv == nil {
		return nil, &SignerError{Msg: "el PKCS#12 no contiene llave privada o certificado", Err: errors.New("contenedor incompleto")}
	}
	rsaKey, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, &SignerError{Msg: "el certificado debe incluir llave privada RSA"}
	}

	l.bundle = &CertificateBundle{
		PrivateKey:  rsaKey,
		Certificate: cert,
		Alias:       secrets.Alias,
	}
	return l.bundle, nil
}

// Refresh descarta el bundle cacheado (tras rotación del certificado).
func (l *P12BundleLoader) Refresh() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bundle = nil
}

var _ CertificateLoader = (*P12BundleLoader)(nil)
