// @title        Kardex API
// @version      1.0
// @description  Kardex de inventario, motor de precios y ofertas, y checkout con reservas.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/kardex-api/docs"
	"github.com/jhoicas/kardex-api/internal/application/checkout"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/pricing"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	infrakafka "github.com/jhoicas/kardex-api/internal/infrastructure/kafka"
	infrapdf "github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/kardex-api/internal/interfaces/http"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
	"github.com/jhoicas/kardex-api/pkg/metrics"
)

// sweepBatch órdenes vencidas liberadas por pasada del barrido.
const sweepBatch = 100

type publisher interface {
	inventory.MovementPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer backend.Close()

	m := metrics.New(cfg.Metrics.Namespace)

	// Eventos del kardex: Kafka si hay brokers, si no se descartan.
	var events publisher = infrakafka.NopPublisher{}
	if cfg.Kafka.Enabled() {
		events = infrakafka.NewMovementPublisher(cfg.Kafka)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de movimientos en Kafka")
	}
	defer func() {
		if err := events.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar publicador de eventos")
		}
	}()

	registerMovementUC := inventory.NewRegisterMovementUseCase(backend.Tx, events, m, log)
	inventoryUC := inventory.NewInventoryUseCase(
		backend.Tx, backend.Products, backend.Movements, backend.Stock, backend.Orders, log,
	)
	reportUC := inventory.NewReportUseCase(inventoryUC, infrapdf.NewKardexGenerator())
	pricingUC := pricing.NewPricingUseCase(backend.Products, backend.Offers, backend.Orders, cfg.Pricing.TaxRate)
	orchestrator := checkout.NewOrchestrator(
		backend.Tx, backend.Orders, pricingUC, registerMovementUC,
		cfg.Checkout.ReservationTTL, m, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FilePath:    "./docs/swagger.json",
		FileContent: docs.SwaggerJSON,
		Path:        "docs",
		Title:       "Kardex API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:          cfg.App.Name,
		ProductUC:        usecase.NewProductUseCase(backend.Products),
		OfferUC:          usecase.NewOfferUseCase(backend.Offers),
		PricingUC:        pricingUC,
		RegisterMovement: registerMovementUC,
		InventoryUC:      inventoryUC,
		ReportUC:         reportUC,
		Checkout:         orchestrator,
		Metrics:          m,
		JWTSecret:        cfg.JWT.Secret,
		JWTIssuer:        cfg.JWT.Issuer,
	})

	go sweepReservations(ctx, orchestrator, cfg.Checkout.SweepInterval, log)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// sweepReservations libera periódicamente las reservas vencidas hasta que ctx termina.
func sweepReservations(ctx context.Context, orch *checkout.Orchestrator, every time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for {
				n, err := orch.ExpireReservations(ctx, now, sweepBatch)
				if err != nil {
					log.Error().Err(err).Msg("barrido de reservas")
					break
				}
				if n < sweepBatch {
					break
				}
			}
		}
	}
}
