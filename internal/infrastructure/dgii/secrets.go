// Bóveda de secretos del certificado de firma DGII.
//
// El .p12 se guarda cifrado en disco; la clave simétrica y la contraseña
// (base64) llegan por entorno/secret-store. Todo se descifra en memoria,
// se cachea para la vida del proceso y nunca se persiste descifrado.

package dgii

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

// CertificateSecrets certificado descifrado y su contraseña, solo en memoria.
type CertificateSecrets struct {
	CertificateBytes []byte
	Password         string
	Alias            string
}

// VaultConfig configuración de la bóveda (normalmente desde pkg/config.DGIIConfig).
type VaultConfig struct {
	CertPath        string // ruta al .p12 cifrado
	CertKey         string // clave simétrica en base64 (32 bytes)
	CertPasswordB64 string // contraseña del .p12 en base64
	CertAlias       string
}

// DecryptFunc backend de descifrado simétrico inyectable.
type DecryptFunc func(cipher []byte, key string) ([]byte, error)

// SecretsVault carga y cachea los secretos del certificado. El cache es por
// instancia (no hay singleton de paquete); Refresh lo invalida tras una
// rotación de credenciales.
type SecretsVault struct {
	cfg     VaultConfig
	decrypt DecryptFunc

	mu     sync.Mutex
	cached *CertificateSecrets
}

// NewSecretsVault construye la bóveda con el backend secretbox por defecto.
func NewSecretsVault(cfg VaultConfig) *SecretsVault {
	return &SecretsVault{cfg: cfg, decrypt: DecryptSecretbox}
}

// NewSecretsVaultWithDecrypt construye la bóveda con un backend explícito.
// Con decrypt nil la bóveda queda sin backend y Get falla con
// ErrEncryptionBackendMissing (construcción con capacidad verificada).
func NewSecretsVaultWithDecrypt(cfg VaultConfig, decrypt DecryptFunc) *SecretsVault {
	return &SecretsVault{cfg: cfg, decrypt: decrypt}
}

// Get devuelve los secretos del certificado, cacheando tras el primer éxito.
func (v *SecretsVault) Get() (*CertificateSecrets, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cached != nil {
		return v.cached, nil
	}

	if v.cfg.CertPath == "" || v.cfg.CertKey == "" || v.cfg.CertPasswordB64 == "" {
		return nil, ErrSecretsNotConfigured
	}
	if v.decrypt == nil {
		return nil, ErrEncryptionBackendMissing
	}

	passwordBytes, err := base64.StdEncoding.DecodeString(v.cfg.CertPasswordB64)
	if err != nil {
		return nil, &SecretsError{Msg: "no se pudo decodificar la contraseña del certificado", Err: err}
	}

	cipherBytes, err := os.ReadFile(v.cfg.CertPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &SecretsError{Msg: fmt.Sprintf("el certificado cifrado no existe: %s", v.cfg.CertPath), Err: err}
		}
		return nil, &SecretsError{Msg: fmt.Sprintf("no se pudo leer el certificado cifrado en %s", v.cfg.CertPath), Err: err}
	}

	plain, err := v.decrypt(cipherBytes, v.cfg.CertKey)
	if err != nil {
		return nil, &SecretsError{Msg: "no se pudo descifrar el certificado", Err: err}
	}

	v.cached = &CertificateSecrets{
		CertificateBytes: plain,
		Password:         string(passwordBytes),
		Alias:            v.cfg.CertAlias,
	}
	return v.cached, nil
}

// Refresh invalida el cache para forzar la recarga de secretos.
func (v *SecretsVault) Refresh() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cached = nil
}

const secretboxNonceSize = 24

// DecryptSecretbox descifra con NaCl secretbox: clave de 32 bytes en base64,
// nonce de 24 bytes como prefijo del cifrado.
func DecryptSecretbox(cipherBytes []byte, keyB64 string) ([]byte, error) {
	key, err := decodeSecretboxKey(keyB64)
	if err != nil {
		return nil, err
	}
	if len(cipherBytes) < secretboxNonceSize {
		return nil, fmt.Errorf("cifrado truncado: %d bytes", len(cipherBytes))
	}
	var nonce [secretboxNonceSize]byte
	copy(nonce[:], cipherBytes[:secretboxNonceSize])

	plain, ok := secretbox.Open(nil, cipherBytes[secretboxNonceSize:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("clave incorrecta o datos corruptos")
	}
	return plain, nil
}

// EncryptSecretbox cifra datos con la misma disposición que DecryptSecretbox
// (usado por cmd/sealcert y por los tests de la bóveda).
func EncryptSecretbox(plain []byte, keyB64 string) ([]byte, error) {
	key, err := decodeSecretboxKey(keyB64)
	if err != nil {
		return nil, err
	}
	var nonce [secretboxNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generar nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, key), nil
}

func decodeSecretboxKey(keyB64 string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("clave simétrica no es base64 válido: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("la clave simétrica debe tener 32 bytes, tiene %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
