package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/ecf-api/internal/application/fiscal"
	infradgii "github.com/jhoicas/ecf-api/internal/infrastructure/dgii"
	"github.com/jhoicas/ecf-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/ecf-api/internal/interfaces/http"
	"github.com/jhoicas/ecf-api/pkg/config"
	"github.com/jhoicas/ecf-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	configRepo := postgres.NewVoucherConfigRepository(pool)
	voucherRepo := postgres.NewVoucherRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Cadena de firma: bóveda de secretos → loader PKCS#12 → firmador XMLDSig.
	vault := infradgii.NewSecretsVault(infradgii.VaultConfig{
		CertPath:        cfg.DGII.CertPath,
		CertKey:         cfg.DGII.CertKey,
		CertPasswordB64: cfg.DGII.CertPasswordB64,
		CertAlias:       cfg.DGII.CertAlias,
	})
	loader := infradgii.NewP12BundleLoader(vault)
	signer := infradgii.NewDigitalSignerService(loader)

	// Canal hacia la DGII: transporte HTTP → auth OAuth → cliente con token.
	httpClient := &http.Client{Timeout: time.Duration(cfg.DGII.HTTPTimeoutSecs) * time.Second}
	transport := infradgii.NewHTTPTransport(httpClient)
	authClient := infradgii.NewAuthClient(transport)
	dgiiClient := infradgii.NewClient(transport, authClient, infradgii.DefaultTokenMargin)

	voucherService := fiscal.NewVoucherService(signer, dgiiClient)
	emitUC := fiscal.NewEmitVoucherUseCase(txRunner, log)
	sendUC := fiscal.NewSendVoucherUseCase(configRepo, voucherRepo, infradgii.NewXMLBuilderService(), voucherService, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		EmitVoucher: emitUC,
		SendVoucher: sendUC,
		VoucherRepo: voucherRepo,
		JWTSecret:   cfg.JWT.Secret,
	})

	// Apagado controlado: SIGINT/SIGTERM esperan a las peticiones en curso.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("apagando servidor")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := cfg.HTTP.Addr()
	log.Info().Str("addr", addr).Msg("servidor HTTP escuchando")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("servidor HTTP")
	}
	log.Info().Msg("servidor detenido")
}
