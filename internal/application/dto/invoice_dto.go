package dto

import "github.com/shopspring/decimal"

// CreateInvoiceRequest body para POST /api/v1/invoices.
type CreateInvoiceRequest struct {
	ClientName   string          `json:"client_name" validate:"required,max=255"`
	ReceiverRFC  string          `json:"receiver_rfc" validate:"omitempty,min=12,max=13"`
	EmissionDate string          `json:"emission_date" validate:"required,datetime=2006-01-02"`
	UUID         string          `json:"uuid" validate:"required,max=64"`
	Subtotal     decimal.Decimal `json:"subtotal" validate:"gt=0"`
	Total        decimal.Decimal `json:"total" validate:"gt=0"`
	XMLContent   string          `json:"xml_content,omitempty"`
}

// InvoiceResponse factura en listados y detalle.
type InvoiceResponse struct {
	ID                         string  `json:"id"`
	ClientName                 string  `json:"client_name"`
	ReceiverRFC                string  `json:"receiver_rfc"`
	EmissionDate               string  `json:"emission_date"` // YYYY-MM-DD
	UUID                       string  `json:"uuid"`
	Subtotal                   float64 `json:"subtotal"`
	Total                      float64 `json:"total"`
	Status                     string  `json:"status"`         // paid | pending
	PaymentStatus              string  `json:"payment_status"` // Pagada | Pendiente
	PaymentComplementGenerated bool    `json:"payment_complement_generated"`
	FacturamaID                *string `json:"facturama_id"`
	ComplementUUID             *string `json:"complement_uuid"`
	PDFURL                     string  `json:"pdf_url"`
	XMLURL                     string  `json:"xml_url"`
}

// ComplementRequestedResponse respuesta de POST /invoices/:id/generate_payment_complement.
type ComplementRequestedResponse struct {
	Message   string `json:"message"`
	InvoiceID string `json:"invoice_id"`
}
