// Servicio de firma digital XMLDSig (enveloped) para los e-CF DGII.
// Inserta <ds:Signature> como último hijo del elemento raíz del documento.

package dgii

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// Algoritmos y namespaces XMLDSig.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"

	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
)

// XMLSigner puerto de firma. La implementación concreta es swappable y
// fakeable en tests sin tocar la orquestación.
type XMLSigner interface {
	SignXML(xmlPayload string) (string, error)
}

// DigitalSignerService implementa XMLSigner con firma enveloped RSA-SHA256.
type DigitalSignerService struct {
	loader CertificateLoader
}

// NewDigitalSignerService crea el servicio sobre un CertificateLoader.
func NewDigitalSignerService(loader CertificateLoader) *DigitalSignerService {
	return &DigitalSignerService{loader: loader}
}

// SignXML firma el payload y devuelve el documento firmado con su
// declaración XML. El material de la llave solo existe durante la llamada.
func (s *DigitalSignerService) SignXML(xmlPayload string) (string, error) {
	if strings.TrimSpace(xmlPayload) == "" {
		return "", &SignerError{Msg: "XML vacío"}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlPayload); err != nil {
		return "", &SignerError{Msg: "XML inválido para la firma", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return "", &SignerError{Msg: "documento sin elemento raíz"}
	}

	bundle, err := s.loader.Load()
	if err != nil {
		var sigErr *SignerError
		if errors.As(err, &sigErr) {
			return "", err
		}
		return "", &SignerError{Msg: "no se pudo cargar el bundle de firma", Err: err}
	}

	// La llave debe ser serializable PKCS#8; descarta llaves exóticas antes de firmar.
	if _, err := x509.MarshalPKCS8PrivateKey(bundle.PrivateKey); err != nil {
		return "", &SignerError{Msg: "no se pudo serializar la clave privada del certificado", Err: err}
	}

	// 1) Digest del documento (C14N). Reference URI="" = documento completo.
	canonicalDoc, err := canonicalizeXML([]byte(xmlPayload))
	if err != nil {
		canonicalDoc = []byte(xmlPayload)
	}
	docDigest := sha256.Sum256(canonicalDoc)
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedInfo (C14N, digest SHA-256) firmado con RSA-SHA256.
	signedInfoXML := buildSignedInfo(docDigestB64)
	canonicalSignedInfo, err := canonicalizeXML([]byte(signedInfoXML))
	if err != nil {
		canonicalSignedInfo = []byte(signedInfoXML)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, bundle.PrivateKey, crypto.SHA256, signHash[:])
	if err != nil {
		return "", &SignerError{Msg: "firmar SignedInfo", Err: err}
	}

	// 3) Nodo ds:Signature (KeyInfo con certificado X.509 y alias opcional).
	certB64 := base64.StdEncoding.EncodeToString(bundle.Certificate.Raw)
	signatureXML := buildSignatureXML(
		signedInfoXML,
		base64.StdEncoding.EncodeToString(signatureValue),
		certB64,
		bundle.Alias,
	)

	// 4) Enveloped: la firma queda como último hijo del raíz.
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return "", &SignerError{Msg: "parsear nodo Signature", Err: err}
	}
	if sigRoot := sigDoc.Root(); sigRoot != nil {
		root.AddChild(sigRoot)
	}

	out, err := doc.WriteToString()
	if err != nil {
		return "", &SignerError{Msg: "serializar documento firmado", Err: err}
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "<?xml") {
		out = xmlDeclaration + "\n" + out
	}
	return out, nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildSignatureXML(signedInfoXML, signatureValueB64, certB64, keyName string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo>`)
	if keyName != "" {
		sb.WriteString(`<ds:KeyName>` + escapeXML(keyName) + `</ds:KeyName>`)
	}
	sb.WriteString(`<ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data>`)
	sb.WriteString(`</ds:KeyInfo>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

var _ XMLSigner = (*DigitalSignerService)(nil)
