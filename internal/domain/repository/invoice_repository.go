package repository

import (
	"context"

	"github.com/jhoicas/complementos-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice.
// GetByID/GetByUUID devuelven (nil, nil) si no existe.
type InvoiceRepository interface {
	// Create falla con *domain.DuplicateUUIDError si el UUID fiscal ya existe.
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByUUID(ctx context.Context, uuid string) (*entity.Invoice, error)
	// List ordena por fecha de emisión descendente.
	List(ctx context.Context) ([]*entity.Invoice, error)
	// MarkComplementGenerated asigna el complemento sólo si aún no estaba generado
	// (check-then-set atómico). Devuelve false si la factura ya estaba pagada y
	// domain.ErrNotFound si no existe.
	MarkComplementGenerated(ctx context.Context, id, facturamaID, complementUUID string) (bool, error)
}
