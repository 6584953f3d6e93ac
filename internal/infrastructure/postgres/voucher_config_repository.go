package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ecf-api/internal/domain/entity"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
)

var _ repository.VoucherConfigRepository = (*VoucherConfigRepo)(nil)

const voucherConfigColumns = `
	id, nombre_contribuyente, rnc, correo_contacto, telefono_contacto,
	tipo_por_defecto, serie_por_defecto, secuencia_siguiente, dias_vencimiento,
	emitir_automatico, api_environment, api_base_url, api_auth_url,
	api_submission_url, api_status_url, api_directory_url, api_void_url,
	api_commercial_approval_url, api_client_id, api_client_secret,
	certificado_alias, certificado_path, certificado_password,
	observaciones, created_at, updated_at`

// VoucherConfigRepo implementa VoucherConfigRepository sobre PostgreSQL.
// Funciona sobre el pool o sobre una transacción.
type VoucherConfigRepo struct {
	db querier
}

// NewVoucherConfigRepository construye el repositorio.
func NewVoucherConfigRepository(db querier) *VoucherConfigRepo {
	return &VoucherConfigRepo{db: db}
}

func (r *VoucherConfigRepo) GetByID(ctx context.Context, id string) (*entity.VoucherConfig, error) {
	q := `SELECT ` + voucherConfigColumns + ` FROM fiscal_voucher_configs WHERE id = $1`
	cfg, err := scanVoucherConfig(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal_voucher_config by id: %w", err)
	}
	return cfg, nil
}

func (r *VoucherConfigRepo) GetFirst(ctx context.Context) (*entity.VoucherConfig, error) {
	q := `SELECT ` + voucherConfigColumns + ` FROM fiscal_voucher_configs ORDER BY created_at LIMIT 1`
	cfg, err := scanVoucherConfig(r.db.QueryRow(ctx, q))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get first fiscal_voucher_config: %w", err)
	}
	return cfg, nil
}

// GetForUpdate toma el lock de fila de la configuración. Debe invocarse dentro
// de una transacción: el lock serializa la asignación de secuencias.
func (r *VoucherConfigRepo) GetForUpdate(ctx context.Context, id string) (*entity.VoucherConfig, error) {
	var row pgx.Row
	if id != "" {
		q := `SELECT ` + voucherConfigColumns + ` FROM fiscal_voucher_configs WHERE id = $1 FOR UPDATE`
		row = r.db.QueryRow(ctx, q, id)
	} else {
		q := `SELECT ` + voucherConfigColumns + ` FROM fiscal_voucher_configs ORDER BY created_at LIMIT 1 FOR UPDATE`
		row = r.db.QueryRow(ctx, q)
	}
	cfg, err := scanVoucherConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock fiscal_voucher_config: %w", err)
	}
	return cfg, nil
}

func (r *VoucherConfigRepo) UpdateSequence(ctx context.Context, id string, next int64) error {
	const q = `
		UPDATE fiscal_voucher_configs
		SET secuencia_siguiente = $2, updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, id, next)
	if err != nil {
		return fmt.Errorf("update secuencia_siguiente: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update secuencia_siguiente: configuración %s no existe", id)
	}
	return nil
}

func scanVoucherConfig(row pgx.Row) (*entity.VoucherConfig, error) {
	var cfg entity.VoucherConfig
	err := row.Scan(
		&cfg.ID, &cfg.NombreContribuyente, &cfg.RNC, &cfg.CorreoContacto, &cfg.TelefonoContacto,
		&cfg.TipoPorDefecto, &cfg.SeriePorDefecto, &cfg.SecuenciaSiguiente, &cfg.DiasVencimiento,
		&cfg.EmitirAutomatico, &cfg.APIEnvironment, &cfg.APIBaseURL, &cfg.APIAuthURL,
		&cfg.APISubmissionURL, &cfg.APIStatusURL, &cfg.APIDirectoryURL, &cfg.APIVoidURL,
		&cfg.APICommercialApprovalURL, &cfg.APIClientID, &cfg.APIClientSecret,
		&cfg.CertificadoAlias, &cfg.CertificadoPath, &cfg.CertificadoPassword,
		&cfg.Observaciones, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
