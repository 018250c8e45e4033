package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/jhoicas/complementos-api/docs"
	"github.com/jhoicas/complementos-api/internal/application/billing"
	"github.com/jhoicas/complementos-api/internal/application/complement"
	"github.com/jhoicas/complementos-api/internal/infrastructure/artifacts"
	"github.com/jhoicas/complementos-api/internal/infrastructure/facturama"
	infrapdf "github.com/jhoicas/complementos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/complementos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/complementos-api/internal/infrastructure/redislock"
	httpRouter "github.com/jhoicas/complementos-api/internal/interfaces/http"
	"github.com/jhoicas/complementos-api/internal/observability/metrics"
	"github.com/jhoicas/complementos-api/pkg/config"
	"github.com/jhoicas/complementos-api/pkg/logger"
)

// @title Complementos de Pago API
// @version 1.0
// @description API de facturas CFDI y complementos de pago (Facturama).
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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
		Str("facturama", cfg.Facturama.BaseURL).
		Msg("iniciando aplicación")

	ctx := context.Background()
	if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("migraciones de base de datos")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	invoiceRepo := postgres.NewInvoiceRepository(pool)

	// Facturama: un solo cliente sin estado para descargas y timbrado
	facturamaClient := facturama.NewClient(cfg.Facturama, log.Component("facturama"))

	// Caché de artefactos: disco local → Facturama → documento de demostración
	store := artifacts.NewOSFileStore(cfg.Storage.ArtifactsDir)
	placeholderPDF := infrapdf.NewMarotoPlaceholderGenerator(log.Component("pdf"))
	cache := complement.NewArtifactCache(store, facturamaClient, placeholderPDF, m, log.Component("artifact_cache")).
		WithIssuer(cfg.Issuer)

	// Lock por factura: Redis si está configurado, si no en memoria (un solo proceso)
	var locker complement.Locker
	if cfg.Redis.Enabled() {
		redisClient, err := redislock.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer redisClient.Close()
		locker = redislock.NewLocker(redisClient, cfg.Jobs.LockTTL, log.Component("redislock"))
	}

	requester := complement.NewRequester(facturamaClient, cfg.Issuer, log.Component("requester"))
	job := complement.NewJob(invoiceRepo, requester, cache, locker, m, log.Component("complement_job"))
	queue := complement.NewWorkerQueue(job, cfg.Jobs.Workers, cfg.Jobs.QueueSize, cfg.Jobs.Timeout, m, log.Component("complement_queue"))
	queue.Start()

	invoiceUC := billing.NewInvoiceUseCase(invoiceRepo, queue, cache, httpRouter.APIPrefix, log.Component("billing"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute, // descargas remotas de hasta 2 × FACTURAMA_DOWNLOAD_TIMEOUT_SECONDS
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.HTTP.CORSOrigins}))
	app.Use(httpRouter.RequestLogger(log.Component("http"), m))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Complementos de Pago API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		InvoiceUC: invoiceUC,
		Auth:      cfg.Auth,
		Gatherer:  prometheus.DefaultGatherer,
		AppName:   cfg.App.Name,
		Log:       log.Component("http"),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Termina los complementos ya encolados antes de cerrar el pool.
	queue.Stop()
	log.Info().Msg("aplicación detenida")
}
