package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado derivado de la factura (no se persiste).
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
)

// Invoice representa un CFDI cargado y su complemento de pago (si ya se generó).
type Invoice struct {
	ID           string
	ClientName   string
	ReceiverRFC  string
	EmissionDate time.Time
	UUID         string // UUID fiscal del timbre; único
	Subtotal     decimal.Decimal
	Total        decimal.Decimal
	XMLContent   string

	// Solo los modifica un job de complemento exitoso, una única vez.
	PaymentComplementGenerated bool
	FacturamaID                *string
	ComplementUUID             *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Paid es verdadero cuando existe complemento generado con Id de Facturama.
func (i *Invoice) Paid() bool {
	return i.PaymentComplementGenerated && present(i.FacturamaID)
}

// Status devuelve "paid" o "pending".
func (i *Invoice) Status() string {
	if i.Paid() {
		return StatusPaid
	}
	return StatusPending
}

// PaymentStatusLabel etiqueta para la UI.
func (i *Invoice) PaymentStatusLabel() string {
	if i.Paid() {
		return "Pagada"
	}
	return "Pendiente"
}

// ArtifactIdentifier identificador con el que se resuelven PDF/XML:
// complement_uuid, si no facturama_id, si no el UUID original.
func (i *Invoice) ArtifactIdentifier() string {
	switch {
	case present(i.ComplementUUID):
		return *i.ComplementUUID
	case present(i.FacturamaID):
		return *i.FacturamaID
	default:
		return i.UUID
	}
}

func present(s *string) bool {
	return s != nil && *s != ""
}
