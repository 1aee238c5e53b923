package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/saludtotal/farmacia-ventas/internal/application/billing"
	"github.com/saludtotal/farmacia-ventas/internal/application/numbering"
	"github.com/saludtotal/farmacia-ventas/internal/application/sales"
	"github.com/saludtotal/farmacia-ventas/internal/domain/siat"
	"github.com/saludtotal/farmacia-ventas/internal/infrastructure/metrics"
	"github.com/saludtotal/farmacia-ventas/internal/infrastructure/postgres"
	infrasiat "github.com/saludtotal/farmacia-ventas/internal/infrastructure/siat"
	"github.com/saludtotal/farmacia-ventas/internal/infrastructure/upstream"
	httpRouter "github.com/saludtotal/farmacia-ventas/internal/interfaces/http"
	"github.com/saludtotal/farmacia-ventas/pkg/config"
	"github.com/saludtotal/farmacia-ventas/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	loc := cfg.SIAT.Location()
	recorder := metrics.NewRecorder(true)

	saleRepo := postgres.NewSaleRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	adjustmentRepo := postgres.NewStockAdjustmentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	numbers := numbering.NewAllocator(postgres.NewCounterRepository(pool))

	catalog := upstream.NewProductsClient(cfg.Upstream.ProductsURL, cfg.Upstream.Timeout)
	inventory := upstream.NewInventoryClient(cfg.Upstream.InventoryURL, cfg.Upstream.Timeout)

	committer := sales.NewStockCommitter(inventory, adjustmentRepo, saleRepo, recorder, log, sales.CommitterConfig{
		CallTimeout: cfg.Upstream.Timeout,
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
		BaseBackoff: cfg.Outbox.BaseBackoff,
		Interval:    cfg.Outbox.Interval,
	})
	finalizeUC := sales.NewFinalizeSaleUseCase(txRunner, catalog, inventory, numbers, committer, recorder, log, sales.Config{
		UpstreamTimeout: cfg.Upstream.Timeout,
		Location:        loc,
	})
	cancelUC := sales.NewCancelSaleUseCase(txRunner, log)
	queryUC := sales.NewQuerySalesUseCase(saleRepo, loc)

	encoder := infrasiat.NewInvoiceEncoder(infrasiat.NewXMLBuilderService(), infrasiat.NewQRGenerator(infrasiat.DefaultQRSize))
	invoiceUC := billing.NewInvoiceUseCase(
		saleRepo, invoiceRepo, numbers,
		siat.NewCUFGenerator(),
		siat.NewLocalCUFDProvider(cfg.SIAT.NIT),
		siat.NewTimestampAuthorizationCodes(),
		encoder, recorder, log,
		billing.IssuerConfig{
			NIT:          cfg.SIAT.NIT,
			RazonSocial:  cfg.SIAT.RazonSocial,
			Branch:       cfg.SIAT.Sucursal,
			Mode:         cfg.SIAT.Modalidad,
			EmissionType: cfg.SIAT.TipoEmision,
			Location:     loc,
		},
	)

	// Reintentos de descuentos de stock pendientes.
	go committer.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Farmacia Ventas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		FinalizeSale:   finalizeUC,
		CancelSale:     cancelUC,
		QuerySales:     queryUC,
		Invoices:       invoiceUC,
		JWTSecret:      cfg.JWT.Secret,
		CancelRoles:    cfg.JWT.CancelRoles,
		Metrics:        recorder,
		MetricsHandler: recorder.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
