// seed carga en la tabla invoices los CFDI de {ARTIFACTS_DIR}/xml que tienen su
// PDF correspondiente en {ARTIFACTS_DIR}/pdf. El nombre del archivo se usa como
// UUID (coincide con el del PDF). Las facturas ya existentes se omiten.
//
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"os"

	"github.com/jhoicas/complementos-api/internal/infrastructure/artifacts"
	"github.com/jhoicas/complementos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/complementos-api/pkg/config"
	"github.com/jhoicas/complementos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("migraciones de base de datos")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	store := artifacts.NewOSFileStore(cfg.Storage.ArtifactsDir)
	res, err := importInvoices(ctx, store, postgres.NewInvoiceRepository(pool), log.Component("seed"))
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.Storage.ArtifactsDir).Msg("seed interrumpido")
		os.Exit(1)
	}
	log.Info().
		Int("created", res.Created).
		Int("duplicated", res.Duplicated).
		Int("without_pdf", res.WithoutPDF).
		Int("failed", res.Failed).
		Msg("seed completado")
}
