// Package complement orquesta la generación de complementos de pago (CFDI tipo
// "P") en Facturama y la resolución de sus representaciones PDF/XML.
package complement

import (
	"context"

	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/infrastructure/facturama"
)

// ArtifactStore almacén local de artefactos (ver artifacts.FileStore).
type ArtifactStore interface {
	Get(ctx context.Context, kind entity.ArtifactKind, id string) ([]byte, bool, error)
	Put(ctx context.Context, kind entity.ArtifactKind, id string, data []byte) error
}

// ArtifactFetcher descarga remota (estándar y, ante 404, emitidos).
type ArtifactFetcher interface {
	FetchArtifact(ctx context.Context, kind entity.ArtifactKind, id string) (*facturama.FetchResult, error)
}

// PlaceholderPDFGenerator PDF de demostración; no debe fallar.
type PlaceholderPDFGenerator interface {
	PlaceholderPDF(ctx context.Context, identifier string) ([]byte, error)
}

// ComplementClient timbrado del complemento en Facturama.
type ComplementClient interface {
	CreateComplement(ctx context.Context, payload facturama.ComplementRequest) (*facturama.ComplementResponse, error)
}

// ArtifactResolver lo implementa ArtifactCache; el job lo usa para pre-calentar.
type ArtifactResolver interface {
	Resolve(ctx context.Context, kind entity.ArtifactKind, identifier string) ([]byte, error)
}

// ComplementRequester construye y envía la solicitud de complemento.
type ComplementRequester interface {
	Request(ctx context.Context, invoice *entity.Invoice) Result
}

// Locker bloqueo por clave sin espera. ok=false si otro lo tiene.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Queue encola la generación del complemento de una factura.
// Las entregas repetidas son seguras: el job verifica el estado antes de llamar a Facturama.
type Queue interface {
	Enqueue(ctx context.Context, invoiceID string) error
}
