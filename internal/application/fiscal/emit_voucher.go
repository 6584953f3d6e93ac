package fiscal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ecf-api/internal/domain"
	"github.com/jhoicas/ecf-api/internal/domain/entity"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
	"github.com/jhoicas/ecf-api/pkg/logger"
)

// EmitLineInput línea de venta a incluir en el comprobante.
type EmitLineInput struct {
	Descripcion    string
	Cantidad       decimal.Decimal
	PrecioUnitario decimal.Decimal
	Subtotal       decimal.Decimal
	Impuesto       decimal.Decimal
	Total          decimal.Decimal
}

// EmitVoucherInput datos de la venta finalizada que origina el comprobante.
// Tipo y Serie vacíos caen a los valores por defecto de la configuración.
type EmitVoucherInput struct {
	ConfigID string
	VentaID  string

	Tipo  string
	Serie string

	Subtotal       decimal.Decimal
	ITBIS          decimal.Decimal
	OtrosImpuestos decimal.Decimal
	Total          decimal.Decimal
	MontoPagado    decimal.Decimal
	MetodoPago     string

	ClienteNombre    string
	ClienteDocumento string
	CorreoEnvio      string
	TelefonoContacto string
	Notas            string

	Lines []EmitLineInput
}

// EmitVoucherUseCase asigna la secuencia legal y persiste el comprobante con
// sus líneas en una sola transacción. La asignación toma el lock de fila de la
// configuración: dos emisiones concurrentes nunca comparten número.
type EmitVoucherUseCase struct {
	txRunner FiscalTxRunner
	log      *logger.Logger
}

// NewEmitVoucherUseCase construye el caso de uso.
func NewEmitVoucherUseCase(txRunner FiscalTxRunner, log *logger.Logger) *EmitVoucherUseCase {
	return &EmitVoucherUseCase{txRunner: txRunner, log: log}
}

// Execute emite el comprobante y devuelve la entidad persistida, en estado
// dgii pendiente_envio. El envío a la DGII es un paso posterior separado: la
// secuencia asignada queda consumida aunque el envío falle.
func (uc *EmitVoucherUseCase) Execute(ctx context.Context, in EmitVoucherInput) (*entity.Voucher, error) {
	var created *entity.Voucher

	err := uc.txRunner.RunFiscal(ctx, func(
		configRepo repository.VoucherConfigRepository,
		voucherRepo repository.VoucherRepository,
	) error {
		cfg, err := configRepo.GetForUpdate(ctx, in.ConfigID)
		if err != nil {
			return fmt.Errorf("obtener configuración fiscal: %w", err)
		}
		if cfg == nil {
			return fmt.Errorf("%w: no existe una configuración fiscal activa", domain.ErrConfigMissing)
		}

		serie := strings.TrimSpace(in.Serie)
		if serie == "" {
			serie = strings.TrimSpace(cfg.SeriePorDefecto)
		}
		tipo := strings.TrimSpace(in.Tipo)
		if tipo == "" {
			tipo = strings.TrimSpace(cfg.TipoPorDefecto)
		}
		if serie == "" || tipo == "" {
			return fmt.Errorf("%w: la configuración fiscal debe incluir una serie y un tipo de comprobante válidos", domain.ErrInvalidInput)
		}

		secuencia := cfg.SecuenciaSiguiente
		if secuencia <= 0 {
			secuencia = 1
		}

		now := time.Now()
		fechaEmision := now
		var fechaVencimiento *time.Time
		if cfg.DiasVencimiento > 0 {
			fv := fechaEmision.AddDate(0, 0, cfg.DiasVencimiento)
			fechaVencimiento = &fv
		}

		voucher := &entity.Voucher{
			ID:               uuid.NewString(),
			ConfigID:         cfg.ID,
			VentaID:          in.VentaID,
			Tipo:             tipo,
			Serie:            serie,
			Secuencia:        secuencia,
			NumeroCompleto:   entity.ComposeNumero(serie, secuencia),
			FechaEmision:     fechaEmision,
			FechaVencimiento: fechaVencimiento,
			Subtotal:         in.Subtotal.Round(2),
			ITBIS:            in.ITBIS.Round(2),
			OtrosImpuestos:   in.OtrosImpuestos.Round(2),
			Total:            in.Total.Round(2),
			MontoPagado:      in.MontoPagado.Round(2),
			MetodoPago:       in.MetodoPago,
			ClienteNombre:    in.ClienteNombre,
			ClienteDocumento: in.ClienteDocumento,
			CorreoEnvio:      in.CorreoEnvio,
			TelefonoContacto: in.TelefonoContacto,
			Estado:           entity.EstadoEmitido,
			Notas:            in.Notas,
			DGIIEstado:       entity.EnvioPendiente,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := voucherRepo.Create(ctx, voucher); err != nil {
			return fmt.Errorf("persistir comprobante: %w", err)
		}

		// El contador avanza en la misma transacción que la creación: el
		// número asignado no se reusa aunque el envío posterior falle.
		if err := configRepo.UpdateSequence(ctx, cfg.ID, secuencia+1); err != nil {
			return fmt.Errorf("avanzar secuencia: %w", err)
		}

		for _, li := range in.Lines {
			line := &entity.VoucherLine{
				ID:             uuid.NewString(),
				VoucherID:      voucher.ID,
				Descripcion:    li.Descripcion,
				Cantidad:       li.Cantidad,
				PrecioUnitario: li.PrecioUnitario,
				Subtotal:       li.Subtotal.Round(2),
				Impuesto:       li.Impuesto.Round(2),
				Total:          li.Total.Round(2),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := voucherRepo.CreateLine(ctx, line); err != nil {
				return fmt.Errorf("persistir línea del comprobante: %w", err)
			}
		}

		created = voucher
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("voucher_id", created.ID).
		Str("numero", created.NumeroCompleto).
		Str("tipo", created.Tipo).
		Msg("comprobante fiscal emitido")
	return created, nil
}
