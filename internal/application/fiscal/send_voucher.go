package fiscal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/ecf-api/internal/domain"
	"github.com/jhoicas/ecf-api/internal/domain/entity"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
	"github.com/jhoicas/ecf-api/pkg/logger"
)

// SendResult resultado del intento de envío de un comprobante.
type SendResult struct {
	Estado    string         `json:"estado"`
	TrackID   string         `json:"track_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Respuesta map[string]any `json:"respuesta,omitempty"`
}

// SendVoucherUseCase envía un comprobante emitido a la DGII y registra el
// resultado en los campos dgii_* del comprobante. Cada intento termina
// persistiendo un estado: enviado, error_xml, error_envio o pendiente_config.
type SendVoucherUseCase struct {
	configRepo  repository.VoucherConfigRepository
	voucherRepo repository.VoucherRepository
	builder     XMLBuilder
	service     *VoucherService
	log         *logger.Logger
	now         func() time.Time
}

// NewSendVoucherUseCase construye el caso de uso.
func NewSendVoucherUseCase(
	configRepo repository.VoucherConfigRepository,
	voucherRepo repository.VoucherRepository,
	builder XMLBuilder,
	service *VoucherService,
	log *logger.Logger,
) *SendVoucherUseCase {
	return &SendVoucherUseCase{
		configRepo:  configRepo,
		voucherRepo: voucherRepo,
		builder:     builder,
		service:     service,
		log:         log,
		now:         time.Now,
	}
}

// Execute intenta el envío del comprobante. Los fallos de configuración, de
// construcción del XML o del canal quedan registrados en el comprobante y se
// reportan en el resultado, no como error del caso de uso; el error de
// retorno queda para fallos de infraestructura (comprobante inexistente, DB).
func (uc *SendVoucherUseCase) Execute(ctx context.Context, voucherID string) (*SendResult, error) {
	voucher, err := uc.voucherRepo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, fmt.Errorf("obtener comprobante: %w", err)
	}
	if voucher == nil {
		return nil, fmt.Errorf("%w: comprobante fiscal %s no encontrado", domain.ErrNotFound, voucherID)
	}

	cfg, err := uc.resolveConfig(ctx, voucher)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		msg := "No hay configuración DGII asociada al comprobante."
		return uc.markEstado(ctx, voucher, entity.EnvioPendienteConfig, msg)
	}
	if cfg.APISubmissionURL == "" {
		msg := "Configura la URL de recepción e-CF (api_submission_url) antes de enviar."
		return uc.markEstado(ctx, voucher, entity.EnvioPendienteConfig, msg)
	}

	lines, err := uc.voucherRepo.GetLines(ctx, voucher.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener líneas del comprobante: %w", err)
	}
	lineValues := make([]entity.VoucherLine, len(lines))
	for i, l := range lines {
		lineValues[i] = *l
	}

	xmlPayload, err := uc.builder.Build(cfg, voucher, lineValues)
	if err != nil {
		uc.log.Error().Err(err).Str("voucher_id", voucher.ID).Msg("error construyendo XML DGII")
		return uc.markEstado(ctx, voucher, entity.EnvioErrorXML, err.Error())
	}

	resp, err := uc.service.SendXML(ctx, cfg, xmlPayload, "")
	if err != nil {
		uc.log.Error().Err(err).Str("voucher_id", voucher.ID).Msg("error enviando comprobante a la DGII")
		return uc.markEstado(ctx, voucher, entity.EnvioErrorEnvio, err.Error())
	}

	data := resp.Data
	trackID, _ := data["trackId"].(string)
	if trackID == "" {
		trackID, _ = data["track_id"].(string)
	}
	estado, _ := data["estado"].(string)
	if estado == "" {
		estado = entity.EnvioEnviado
	}

	rawResp, err := json.Marshal(data)
	if err != nil {
		rawResp = []byte("{}")
	}

	sentAt := uc.now()
	voucher.DGIITrackID = trackID
	voucher.DGIIEstado = estado
	voucher.DGIIRespuesta = rawResp
	voucher.DGIIEnviadoAt = &sentAt
	if err := uc.voucherRepo.UpdateSubmission(ctx, voucher); err != nil {
		return nil, fmt.Errorf("persistir resultado del envío: %w", err)
	}

	uc.log.Info().
		Str("voucher_id", voucher.ID).
		Str("numero", voucher.NumeroCompleto).
		Str("estado", estado).
		Str("track_id", trackID).
		Msg("comprobante enviado a la DGII")

	return &SendResult{Estado: estado, TrackID: trackID, Respuesta: data}, nil
}

// resolveConfig localiza la configuración del comprobante; sin referencia
// explícita cae a la primera disponible. nil, nil cuando no hay ninguna.
func (uc *SendVoucherUseCase) resolveConfig(ctx context.Context, voucher *entity.Voucher) (*entity.VoucherConfig, error) {
	if voucher.ConfigID != "" {
		cfg, err := uc.configRepo.GetByID(ctx, voucher.ConfigID)
		if err != nil {
			return nil, fmt.Errorf("obtener configuración fiscal: %w", err)
		}
		return cfg, nil
	}
	cfg, err := uc.configRepo.GetFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtener configuración fiscal: %w", err)
	}
	return cfg, nil
}

// markEstado persiste un estado de fallo/configuración pendiente con el
// detalle en dgii_respuesta.
func (uc *SendVoucherUseCase) markEstado(ctx context.Context, voucher *entity.Voucher, estado, msg string) (*SendResult, error) {
	voucher.DGIIEstado = estado
	voucher.DGIIRespuesta, _ = json.Marshal(map[string]string{"error": msg})
	if err := uc.voucherRepo.UpdateSubmission(ctx, voucher); err != nil {
		return nil, fmt.Errorf("persistir estado %s: %w", estado, err)
	}
	return &SendResult{Estado: estado, Error: msg}, nil
}
