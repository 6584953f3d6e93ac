package fiscal

import (
	"context"

	"github.com/jhoicas/ecf-api/internal/domain/entity"
	infradgii "github.com/jhoicas/ecf-api/internal/infrastructure/dgii"
)

// ServiceError error de alto nivel del flujo de envío DGII. Envuelve los
// errores de firma y cliente sin perder la causa.
type ServiceError struct {
	Msg string
	Err error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// VoucherService combina firma y cliente HTTP para el envío de comprobantes.
type VoucherService struct {
	signer infradgii.XMLSigner
	client SubmissionClient
}

// NewVoucherService construye el servicio de envío.
func NewVoucherService(signer infradgii.XMLSigner, client SubmissionClient) *VoucherService {
	return &VoucherService{signer: signer, client: client}
}

// SendXML firma el payload y lo envía a la URL de recepción e-CF de la
// configuración (o a submissionURL si se indica). Con la URL vacía falla sin
// firmar ni tocar la red.
func (s *VoucherService) SendXML(ctx context.Context, cfg *entity.VoucherConfig, xmlPayload, submissionURL string) (*infradgii.ClientResponse, error) {
	if submissionURL == "" {
		submissionURL = cfg.APISubmissionURL
	}
	if submissionURL == "" {
		return nil, &ServiceError{Msg: "Config DGII incompleta: falta api_submission_url"}
	}

	signedXML, err := s.signer.SignXML(xmlPayload)
	if err != nil {
		return nil, &ServiceError{Msg: "no se pudo firmar el comprobante", Err: err}
	}

	payload := map[string]string{"xml": signedXML}
	creds := infradgii.Credentials{
		AuthURL:      cfg.APIAuthURL,
		ClientID:     cfg.APIClientID,
		ClientSecret: cfg.APIClientSecret,
	}

	resp, err := s.client.PostJSON(ctx, submissionURL, payload, creds, nil)
	if err != nil {
		return nil, &ServiceError{Msg: "falló el envío del comprobante a la DGII", Err: err}
	}
	return resp, nil
}
