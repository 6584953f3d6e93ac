package dgii_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ecf-api/internal/infrastructure/dgii"
)

// ──────────────────────────────────────────────────────────────────────────────
// Loader fake con material generado
// ──────────────────────────────────────────────────────────────────────────────

type fakeLoader struct {
	bundle *dgii.CertificateBundle
	err    error
}

func (f *fakeLoader) Load() (*dgii.CertificateBundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bundle, nil
}

// newTestBundle genera una llave RSA y un certificado autofirmado de prueba.
func newTestBundle(t *testing.T, alias string) *dgii.CertificateBundle {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "Pruebas e-CF"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &dgii.CertificateBundle{
		PrivateKey:  priv,
		Certificate: cert,
		Alias:       alias,
	}
}

const sampleECF = `<?xml version="1.0" encoding="UTF-8"?>
<ECF><Encabezado><RNCEmisor>101000001</RNCEmisor></Encabezado></ECF>`

// ──────────────────────────────────────────────────────────────────────────────
// Tests DigitalSignerService
// ──────────────────────────────────────────────────────────────────────────────

// El documento firmado es XML bien formado, con declaración y con la firma
// como último hijo del raíz.
func TestSignXML_EstructuraFirmada(t *testing.T) {
	signer := dgii.NewDigitalSignerService(&fakeLoader{bundle: newTestBundle(t, "alias-pruebas")})

	signed, err := signer.SignXML(sampleECF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(signed), "<?xml"), "debe conservar la declaración XML")

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(signed), "el resultado debe ser XML bien formado")

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "ECF", root.Tag)

	children := root.ChildElements()
	require.NotEmpty(t, children)
	sig := children[len(children)-1]
	assert.Equal(t, "Signature", sig.Tag, "la firma debe ser el último hijo del raíz")

	// El contenido original sigue intacto.
	rnc := root.FindElement("./Encabezado/RNCEmisor")
	require.NotNil(t, rnc)
	assert.Equal(t, "101000001", rnc.Text())
}

// La firma incluye SignedInfo, SignatureValue y el certificado X.509.
func TestSignXML_ContenidoDeLaFirma(t *testing.T) {
	signer := dgii.NewDigitalSignerService(&fakeLoader{bundle: newTestBundle(t, "")})

	signed, err := signer.SignXML(sampleECF)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(signed))

	sig := doc.Root().FindElement("./Signature")
	require.NotNil(t, sig)
	assert.NotNil(t, sig.FindElement("./SignedInfo/SignatureMethod"))
	assert.NotNil(t, sig.FindElement("./SignedInfo/Reference/DigestValue"))

	sv := sig.FindElement("./SignatureValue")
	require.NotNil(t, sv)
	assert.NotEmpty(t, strings.TrimSpace(sv.Text()))

	cert := sig.FindElement("./KeyInfo/X509Data/X509Certificate")
	require.NotNil(t, cert)
	assert.NotEmpty(t, strings.TrimSpace(cert.Text()))
}

// El alias configurado viaja como KeyName; sin alias el nodo no aparece.
func TestSignXML_AliasEnKeyInfo(t *testing.T) {
	conAlias := dgii.NewDigitalSignerService(&fakeLoader{bundle: newTestBundle(t, "cert-produccion")})
	signed, err := conAlias.SignXML(sampleECF)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(signed))
	keyName := doc.Root().FindElement("./Signature/KeyInfo/KeyName")
	require.NotNil(t, keyName)
	assert.Equal(t, "cert-produccion", keyName.Text())

	sinAlias := dgii.NewDigitalSignerService(&fakeLoader{bundle: newTestBundle(t, "")})
	signed, err = sinAlias.SignXML(sampleECF)
	require.NoError(t, err)

	doc = etree.NewDocument()
	require.NoError(t, doc.ReadFromString(signed))
	assert.Nil(t, doc.Root().FindElement("./Signature/KeyInfo/KeyName"))
}

// Dos firmas del mismo documento con la misma llave son deterministas
// (RSA PKCS#1 v1.5 no usa aleatoriedad).
func TestSignXML_Determinista(t *testing.T) {
	bundle := newTestBundle(t, "")
	signer := dgii.NewDigitalSignerService(&fakeLoader{bundle: bundle})

	first, err := signer.SignXML(sampleECF)
	require.NoError(t, err)
	second, err := signer.SignXML(sampleECF)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Payload vacío o mal formado es SignerError sin cargar el certificado.
func TestSignXML_PayloadInvalido(t *testing.T) {
	loader := &fakeLoader{err: fmt.Errorf("no debería cargarse")}
	signer := dgii.NewDigitalSignerService(loader)

	_, err := signer.SignXML("")
	var sigErr *dgii.SignerError
	assert.ErrorAs(t, err, &sigErr)

	_, err = signer.SignXML("<ECF><sin-cerrar>")
	assert.ErrorAs(t, err, &sigErr)
}

// El fallo del loader se propaga como SignerError conservando la causa.
func TestSignXML_LoaderFalla(t *testing.T) {
	cause := fmt.Errorf("certificado corrupto")
	signer := dgii.NewDigitalSignerService(&fakeLoader{err: cause})

	_, err := signer.SignXML(sampleECF)
	var sigErr *dgii.SignerError
	require.ErrorAs(t, err, &sigErr)
	assert.ErrorIs(t, err, cause)
}
