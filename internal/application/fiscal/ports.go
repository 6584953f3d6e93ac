package fiscal

import (
	"context"

	"github.com/jhoicas/ecf-api/internal/domain/entity"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
	infradgii "github.com/jhoicas/ecf-api/internal/infrastructure/dgii"
)

// FiscalTxRunner ejecuta una función dentro de una transacción que incluye los
// repos de configuración y comprobantes. El lock de la configuración solo es
// efectivo dentro de la transacción.
type FiscalTxRunner interface {
	RunFiscal(ctx context.Context, fn func(
		configRepo repository.VoucherConfigRepository,
		voucherRepo repository.VoucherRepository,
	) error) error
}

// XMLBuilder construye el documento ECF de un comprobante.
type XMLBuilder interface {
	Build(cfg *entity.VoucherConfig, voucher *entity.Voucher, lines []entity.VoucherLine) (string, error)
}

// SubmissionClient envía JSON autenticado a los servicios DGII.
type SubmissionClient interface {
	PostJSON(ctx context.Context, url string, body any, creds infradgii.Credentials, extraHeaders map[string]string) (*infradgii.ClientResponse, error)
}
