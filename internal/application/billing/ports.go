package billing

import (
	"context"

	"github.com/jhoicas/complementos-api/internal/domain/entity"
)

// ComplementQueue encola la generación del complemento (ver complement.WorkerQueue).
type ComplementQueue interface {
	Enqueue(ctx context.Context, invoiceID string) error
}

// ArtifactResolver devuelve el PDF/XML del complemento (ver complement.ArtifactCache).
type ArtifactResolver interface {
	Resolve(ctx context.Context, kind entity.ArtifactKind, identifier string) ([]byte, error)
}
