package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ecf-api/internal/application/fiscal"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
)

var _ fiscal.FiscalTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunFiscal inicia una transacción, ejecuta fn con los repos fiscales atados
// a la tx y hace Commit o Rollback.
func (r *TxRunner) RunFiscal(ctx context.Context, fn func(
	configRepo repository.VoucherConfigRepository,
	voucherRepo repository.VoucherRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	configRepo := NewVoucherConfigRepository(tx)
	voucherRepo := NewVoucherRepository(tx)

	if err := fn(configRepo, voucherRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
