package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ecf-api/internal/application/dto"
	"github.com/jhoicas/ecf-api/internal/application/fiscal"
	"github.com/jhoicas/ecf-api/internal/domain"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
)

// VoucherHandler maneja las peticiones HTTP de comprobantes fiscales (protegido).
type VoucherHandler struct {
	emitUC      *fiscal.EmitVoucherUseCase
	sendUC      *fiscal.SendVoucherUseCase
	voucherRepo repository.VoucherRepository
}

// NewVoucherHandler construye el handler.
func NewVoucherHandler(emitUC *fiscal.EmitVoucherUseCase, sendUC *fiscal.SendVoucherUseCase, voucherRepo repository.VoucherRepository) *VoucherHandler {
	return &VoucherHandler{emitUC: emitUC, sendUC: sendUC, voucherRepo: voucherRepo}
}

// Emit emite un comprobante fiscal asignando su número legal.
// POST /api/comprobantes
func (h *VoucherHandler) Emit(c *fiber.Ctx) error {
	if GetUserID(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.EmitVoucherRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	lines := make([]fiscal.EmitLineInput, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = fiscal.EmitLineInput{
			Descripcion:    l.Descripcion,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
			Subtotal:       l.Subtotal,
			Impuesto:       l.Impuesto,
			Total:          l.Total,
		}
	}
	voucher, err := h.emitUC.Execute(c.Context(), fiscal.EmitVoucherInput{
		ConfigID:         in.ConfigID,
		VentaID:          in.VentaID,
		Tipo:             in.Tipo,
		Serie:            in.Serie,
		Subtotal:         in.Subtotal,
		ITBIS:            in.ITBIS,
		OtrosImpuestos:   in.OtrosImpuestos,
		Total:            in.Total,
		MontoPagado:      in.MontoPagado,
		MetodoPago:       in.MetodoPago,
		ClienteNombre:    in.ClienteNombre,
		ClienteDocumento: in.ClienteDocumento,
		CorreoEnvio:      in.CorreoEnvio,
		TelefonoContacto: in.TelefonoContacto,
		Notas:            in.Notas,
		Lines:            lines,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConfigMissing) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFIG_MISSING", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewVoucherResponse(voucher))
}

// Send envía el comprobante a la DGII y registra el resultado.
// POST /api/comprobantes/:id/enviar
func (h *VoucherHandler) Send(c *fiber.Ctx) error {
	if GetUserID(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	result, err := h.sendUC.Execute(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "comprobante no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(result)
}

// GetByID obtiene el comprobante con su estado de envío DGII.
// GET /api/comprobantes/:id
func (h *VoucherHandler) GetByID(c *fiber.Ctx) error {
	if GetUserID(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	voucher, err := h.voucherRepo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if voucher == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "comprobante no encontrado"})
	}
	return c.JSON(dto.NewVoucherResponse(voucher))
}
