package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, client_name, receiver_rfc, emission_date, uuid, subtotal, total, xml_content,
	payment_complement_generated, facturama_id, complement_uuid, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la factura; asigna ID y timestamps si vienen vacíos.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.ClientName, invoice.ReceiverRFC, invoice.EmissionDate, invoice.UUID,
		invoice.Subtotal, invoice.Total, invoice.XMLContent,
		invoice.PaymentComplementGenerated, nullIfEmpty(invoice.FacturamaID), nullIfEmpty(invoice.ComplementUUID),
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateUUIDError{UUID: invoice.UUID}
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID devuelve la factura o (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		// id no es un UUID válido: no puede existir (evita error de cast en PostgreSQL)
		return nil, nil
	}
	row := r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanOne(row)
}

// GetByUUID busca por UUID fiscal.
func (r *InvoiceRepo) GetByUUID(ctx context.Context, fiscalUUID string) (*entity.Invoice, error) {
	row := r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE uuid = $1`, fiscalUUID)
	return scanOne(row)
}

// List devuelve todas las facturas, más recientes primero.
func (r *InvoiceRepo) List(ctx context.Context) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY emission_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// MarkComplementGenerated asignación única: solo actualiza si el flag sigue en false.
func (r *InvoiceRepo) MarkComplementGenerated(ctx context.Context, id, facturamaID, complementUUID string) (bool, error) {
	query := `
		UPDATE invoices
		SET payment_complement_generated = TRUE,
		    facturama_id    = $2,
		    complement_uuid = $3,
		    updated_at      = $4
		WHERE id = $1 AND payment_complement_generated = FALSE`
	tag, err := r.q.Exec(ctx, query, id, facturamaID, nullIfEmpty(&complementUUID), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark complement generated: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check invoice: %w", err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}

func scanOne(row pgx.Row) (*entity.Invoice, error) {
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return inv, nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.ClientName, &inv.ReceiverRFC, &inv.EmissionDate, &inv.UUID,
		&inv.Subtotal, &inv.Total, &inv.XMLContent,
		&inv.PaymentComplementGenerated, &inv.FacturamaID, &inv.ComplementUUID,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
