package complement

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/observability/metrics"
	"github.com/jhoicas/complementos-api/pkg/cfdi"
	"github.com/jhoicas/complementos-api/pkg/config"
)

// ArtifactCache resuelve PDF/XML por identificador en este orden:
//
//	local → Facturama (estándar, emitidos si 404) → documento de demostración
//
// Lo obtenido de Facturama o generado se guarda localmente y se reutiliza.
type ArtifactCache struct {
	store       ArtifactStore
	fetcher     ArtifactFetcher
	placeholder PlaceholderPDFGenerator
	metrics     *metrics.Metrics
	log         zerolog.Logger
	now         func() time.Time
	issuer      cfdi.PlaceholderIssuer
	group       singleflight.Group
}

// NewArtifactCache construye la caché. m puede ser nil.
func NewArtifactCache(store ArtifactStore, fetcher ArtifactFetcher, placeholder PlaceholderPDFGenerator, m *metrics.Metrics, log zerolog.Logger) *ArtifactCache {
	return &ArtifactCache{
		store:       store,
		fetcher:     fetcher,
		placeholder: placeholder,
		metrics:     m,
		log:         log,
		now:         time.Now,
		issuer:      cfdi.DefaultPlaceholderIssuer,
	}
}

// WithIssuer usa el emisor configurado en el XML de demostración.
func (c *ArtifactCache) WithIssuer(issuer config.IssuerConfig) *ArtifactCache {
	c.issuer = cfdi.PlaceholderIssuer{
		RFC:          issuer.RFC,
		Name:         issuer.Name,
		FiscalRegime: issuer.FiscalRegime,
		PostalCode:   issuer.ExpeditionPlace,
	}
	return c
}

// Resolve nunca falla por contenido no disponible: el último recurso es el
// documento de demostración. Peticiones simultáneas del mismo (kind, id) en este
// proceso comparten una sola resolución.
func (c *ArtifactCache) Resolve(ctx context.Context, kind entity.ArtifactKind, identifier string) ([]byte, error) {
	if !kind.Valid() {
		return nil, domain.NewValidationError("kind", fmt.Sprintf("tipo de archivo inválido %q", kind))
	}
	if identifier == "" {
		return nil, domain.NewValidationError("identifier", "es obligatorio")
	}

	// una vez iniciada, la resolución no se cancela con la petición HTTP
	detached := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(string(kind)+":"+identifier, func() (interface{}, error) {
		return c.resolve(detached, kind, identifier)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *ArtifactCache) resolve(ctx context.Context, kind entity.ArtifactKind, id string) ([]byte, error) {
	log := c.log.With().Str("kind", string(kind)).Str("identifier", id).Logger()

	data, ok, err := c.store.Get(ctx, kind, id)
	if err != nil {
		log.Warn().Err(err).Msg("lectura local fallida, se trata como ausente")
	}
	if ok && len(data) > 0 {
		log.Debug().Msg("artefacto servido desde almacén local")
		c.metrics.ArtifactResolved(string(kind), metrics.SourceLocal)
		return data, nil
	}

	res, err := c.fetcher.FetchArtifact(ctx, kind, id)
	if err == nil && res != nil && len(res.Body) > 0 {
		c.persist(ctx, log, kind, id, res.Body)
		log.Info().Str("endpoint", res.Endpoint).Msg("artefacto descargado de Facturama")
		c.metrics.ArtifactResolved(string(kind), metrics.SourceRemote)
		return res.Body, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("artefacto no disponible en Facturama, generando demostración")
	} else {
		log.Warn().Msg("Facturama devolvió un artefacto vacío, generando demostración")
	}

	data, err = c.buildPlaceholder(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("generar documento de demostración: %w", err)
	}
	c.persist(ctx, log, kind, id, data)
	c.metrics.ArtifactResolved(string(kind), metrics.SourcePlaceholder)
	return data, nil
}

func (c *ArtifactCache) buildPlaceholder(ctx context.Context, kind entity.ArtifactKind, id string) ([]byte, error) {
	if kind == entity.ArtifactPDF {
		return c.placeholder.PlaceholderPDF(ctx, id)
	}
	return cfdi.BuildPlaceholderXMLFor(c.issuer, id, c.now())
}

// persist un fallo de escritura no impide devolver el contenido al llamador.
func (c *ArtifactCache) persist(ctx context.Context, log zerolog.Logger, kind entity.ArtifactKind, id string, data []byte) {
	if err := c.store.Put(ctx, kind, id, data); err != nil {
		log.Error().Err(err).Msg("no se pudo guardar el artefacto localmente")
	}
}
