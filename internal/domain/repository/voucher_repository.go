package repository

import (
	"context"

	"github.com/jhoicas/ecf-api/internal/domain/entity"
)

// VoucherRepository persistencia de comprobantes fiscales y sus líneas.
type VoucherRepository interface {
	Create(ctx context.Context, v *entity.Voucher) error
	CreateLine(ctx context.Context, line *entity.VoucherLine) error
	// GetByID devuelve nil, nil si el comprobante no existe.
	GetByID(ctx context.Context, id string) (*entity.Voucher, error)
	GetLines(ctx context.Context, voucherID string) ([]*entity.VoucherLine, error)
	// UpdateSubmission persiste únicamente los campos de envío DGII
	// (dgii_estado, dgii_track_id, dgii_respuesta, dgii_enviado_at).
	UpdateSubmission(ctx context.Context, v *entity.Voucher) error
}
