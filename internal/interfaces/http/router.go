package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ecf-api/internal/application/fiscal"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EmitVoucher *fiscal.EmitVoucherUseCase
	SendVoucher *fiscal.SendVoucherUseCase
	VoucherRepo repository.VoucherRepository
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Health (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Comprobantes fiscales (protegido)
	vouchers := protected.Group("/comprobantes")
	voucherHandler := NewVoucherHandler(deps.EmitVoucher, deps.SendVoucher, deps.VoucherRepo)
	vouchers.Post("/", voucherHandler.Emit)
	vouchers.Get("/:id", voucherHandler.GetByID)
	vouchers.Post("/:id/enviar", voucherHandler.Send)
}
