package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ecf-api/internal/domain"
	"github.com/jhoicas/ecf-api/internal/domain/entity"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
)

var _ repository.VoucherRepository = (*VoucherRepo)(nil)

const voucherColumns = `
	id, config_id, venta_id, tipo, serie, secuencia, numero_completo,
	fecha_emision, fecha_vencimiento, subtotal, itbis, otros_impuestos,
	total, monto_pagado, metodo_pago, cliente_nombre, cliente_documento,
	correo_envio, telefono_contacto, estado, notas,
	dgii_estado, dgii_track_id, dgii_respuesta, dgii_enviado_at,
	created_at, updated_at`

// VoucherRepo implementa VoucherRepository sobre PostgreSQL.
type VoucherRepo struct {
	db querier
}

// NewVoucherRepository construye el repositorio.
func NewVoucherRepository(db querier) *VoucherRepo {
	return &VoucherRepo{db: db}
}

func (r *VoucherRepo) Create(ctx context.Context, v *entity.Voucher) error {
	const q = `
		INSERT INTO fiscal_vouchers
			(id, config_id, venta_id, tipo, serie, secuencia, numero_completo,
			 fecha_emision, fecha_vencimiento, subtotal, itbis, otros_impuestos,
			 total, monto_pagado, metodo_pago, cliente_nombre, cliente_documento,
			 correo_envio, telefono_contacto, estado, notas,
			 dgii_estado, dgii_track_id, dgii_respuesta, dgii_enviado_at,
			 created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			 $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, now(), now())`
	_, err := r.db.Exec(ctx, q,
		v.ID, v.ConfigID, v.VentaID, v.Tipo, v.Serie, v.Secuencia, v.NumeroCompleto,
		v.FechaEmision, v.FechaVencimiento, v.Subtotal, v.ITBIS, v.OtrosImpuestos,
		v.Total, v.MontoPagado, v.MetodoPago, v.ClienteNombre, v.ClienteDocumento,
		v.CorreoEnvio, v.TelefonoContacto, v.Estado, v.Notas,
		v.DGIIEstado, v.DGIITrackID, v.DGIIRespuesta, v.DGIIEnviadoAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe un comprobante %s", domain.ErrDuplicate, v.NumeroCompleto)
		}
		return fmt.Errorf("insert fiscal_voucher: %w", err)
	}
	return nil
}

func (r *VoucherRepo) CreateLine(ctx context.Context, line *entity.VoucherLine) error {
	const q = `
		INSERT INTO fiscal_voucher_lines
			(id, voucher_id, descripcion, cantidad, precio_unitario, subtotal,
			 impuesto, total, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	_, err := r.db.Exec(ctx, q,
		line.ID, line.VoucherID, line.Descripcion, line.Cantidad,
		line.PrecioUnitario, line.Subtotal, line.Impuesto, line.Total,
	)
	if err != nil {
		return fmt.Errorf("insert fiscal_voucher_line: %w", err)
	}
	return nil
}

func (r *VoucherRepo) GetByID(ctx context.Context, id string) (*entity.Voucher, error) {
	q := `SELECT ` + voucherColumns + ` FROM fiscal_vouchers WHERE id = $1`
	v, err := scanVoucher(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal_voucher by id: %w", err)
	}
	return v, nil
}

func (r *VoucherRepo) GetLines(ctx context.Context, voucherID string) ([]*entity.VoucherLine, error) {
	const q = `
		SELECT id, voucher_id, descripcion, cantidad, precio_unitario, subtotal,
		       impuesto, total, created_at, updated_at
		FROM fiscal_voucher_lines
		WHERE voucher_id = $1
		ORDER BY created_at`
	rows, err := r.db.Query(ctx, q, voucherID)
	if err != nil {
		return nil, fmt.Errorf("list fiscal_voucher_lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.VoucherLine
	for rows.Next() {
		var l entity.VoucherLine
		if err := rows.Scan(
			&l.ID, &l.VoucherID, &l.Descripcion, &l.Cantidad, &l.PrecioUnitario,
			&l.Subtotal, &l.Impuesto, &l.Total, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fiscal_voucher_line: %w", err)
		}
		lines = append(lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fiscal_voucher_lines: %w", err)
	}
	return lines, nil
}

// UpdateSubmission persiste solo los campos de envío DGII del comprobante.
func (r *VoucherRepo) UpdateSubmission(ctx context.Context, v *entity.Voucher) error {
	const q = `
		UPDATE fiscal_vouchers
		SET dgii_estado = $2, dgii_track_id = $3, dgii_respuesta = $4,
		    dgii_enviado_at = $5, updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, v.ID, v.DGIIEstado, v.DGIITrackID, v.DGIIRespuesta, v.DGIIEnviadoAt)
	if err != nil {
		return fmt.Errorf("update fiscal_voucher submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: comprobante %s no existe", domain.ErrNotFound, v.ID)
	}
	return nil
}

func scanVoucher(row pgx.Row) (*entity.Voucher, error) {
	var v entity.Voucher
	err := row.Scan(
		&v.ID, &v.ConfigID, &v.VentaID, &v.Tipo, &v.Serie, &v.Secuencia, &v.NumeroCompleto,
		&v.FechaEmision, &v.FechaVencimiento, &v.Subtotal, &v.ITBIS, &v.OtrosImpuestos,
		&v.Total, &v.MontoPagado, &v.MetodoPago, &v.ClienteNombre, &v.ClienteDocumento,
		&v.CorreoEnvio, &v.TelefonoContacto, &v.Estado, &v.Notas,
		&v.DGIIEstado, &v.DGIITrackID, &v.DGIIRespuesta, &v.DGIIEnviadoAt,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
