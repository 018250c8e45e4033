package complement

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/domain/repository"
	"github.com/jhoicas/complementos-api/internal/observability/metrics"
)

// Job genera el complemento de pago de una factura:
//
//	lock → verificar estado → Facturama → marcar pagada → pre-calentar PDF/XML
//
// Se ejecuta fuera del ciclo HTTP (ver WorkerQueue).
type Job struct {
	repo      repository.InvoiceRepository
	requester ComplementRequester
	cache     ArtifactResolver
	locker    Locker
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewJob construye el job. Si locker es nil se usa un KeyedLocker en memoria.
func NewJob(
	repo repository.InvoiceRepository,
	requester ComplementRequester,
	cache ArtifactResolver,
	locker Locker,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Job {
	if locker == nil {
		locker = NewKeyedLocker()
	}
	return &Job{repo: repo, requester: requester, cache: cache, locker: locker, metrics: m, log: log}
}

// Run ejecuta el job para invoiceID. Errores:
//   - domain.ErrJobInProgress: otra ejecución tiene el lock de la factura.
//   - domain.ErrNotFound: la factura no existe.
//   - domain.ErrComplementAlreadyGenerated: ya estaba pagada (no se llama a Facturama).
//   - *domain.ExternalServiceError: Facturama falló; la factura no se modifica.
func (j *Job) Run(ctx context.Context, invoiceID string) (err error) {
	start := time.Now()
	log := j.log.With().Str("invoice_id", invoiceID).Logger()
	defer func() {
		outcome := metrics.ClassifyJobOutcome(err)
		j.metrics.JobFinished(outcome, time.Since(start))
		if err != nil {
			log.Warn().Err(err).Str("outcome", outcome).Msg("job de complemento terminó con error")
		}
	}()

	release, ok, err := j.locker.TryLock(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("tomar lock de factura: %w", err)
	}
	if !ok {
		return domain.ErrJobInProgress
	}
	defer release()

	invoice, err := j.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("obtener factura: %w", err)
	}
	if invoice == nil {
		return domain.ErrNotFound
	}
	if invoice.PaymentComplementGenerated {
		return domain.ErrComplementAlreadyGenerated
	}

	res := j.requester.Request(ctx, invoice)
	if !res.Success {
		return res.Err()
	}

	updated, err := j.repo.MarkComplementGenerated(ctx, invoice.ID, res.FacturamaID, res.ComplementUUID)
	if err != nil {
		return fmt.Errorf("marcar complemento generado: %w", err)
	}
	if !updated {
		return domain.ErrComplementAlreadyGenerated
	}
	log.Info().Str("facturama_id", res.FacturamaID).Str("complement_uuid", res.ComplementUUID).Msg("factura marcada como pagada")

	identifier := res.ComplementUUID
	if identifier == "" {
		identifier = res.FacturamaID
	}
	j.prewarm(ctx, log, identifier)
	return nil
}

// prewarm best-effort: los errores solo se registran.
func (j *Job) prewarm(ctx context.Context, log zerolog.Logger, identifier string) {
	for _, kind := range []entity.ArtifactKind{entity.ArtifactPDF, entity.ArtifactXML} {
		if _, err := j.cache.Resolve(ctx, kind, identifier); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Str("identifier", identifier).Msg("no se pudo pre-calentar el artefacto")
		}
	}
}
