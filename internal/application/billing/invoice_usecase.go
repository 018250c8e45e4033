// Package billing casos de uso de facturas: carga de CFDI, consulta, solicitud
// del complemento de pago y descarga de sus representaciones.
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/complementos-api/internal/application/dto"
	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/cfdi"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/domain/repository"
	catalog "github.com/jhoicas/complementos-api/pkg/cfdi"
)

const dateLayout = "2006-01-02"

// ComplementInProgressMessage mensaje devuelto al encolar el complemento.
const ComplementInProgressMessage = "Complemento de pago en proceso..."

// InvoiceUseCase operaciones sobre facturas.
type InvoiceUseCase struct {
	repo      repository.InvoiceRepository
	queue     ComplementQueue
	artifacts ArtifactResolver
	validate  *validator.Validate
	log       zerolog.Logger
	// prefijo de las rutas de descarga en las respuestas (ej. /api/v1)
	routePrefix string
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	repo repository.InvoiceRepository,
	queue ComplementQueue,
	artifacts ArtifactResolver,
	routePrefix string,
	log zerolog.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		repo:        repo,
		queue:       queue,
		artifacts:   artifacts,
		validate:    newValidator(),
		log:         log,
		routePrefix: strings.TrimRight(routePrefix, "/"),
	}
}

// UploadXML extrae los datos del CFDI y crea la factura.
//
// Retorna:
//   - *domain.InvalidXMLFormatError si el XML no es un CFDI timbrado válido.
//   - *domain.DuplicateUUIDError    si ya existe una factura con ese UUID.
//   - *domain.ValidationError       si subtotal o total no son positivos.
func (uc *InvoiceUseCase) UploadXML(ctx context.Context, xmlContent []byte) (*dto.InvoiceResponse, error) {
	fields, err := cfdi.Extract(xmlContent)
	if err != nil {
		return nil, err
	}

	existing, err := uc.repo.GetByUUID(ctx, fields.UUID)
	if err != nil {
		return nil, fmt.Errorf("buscar factura por uuid: %w", err)
	}
	if existing != nil {
		return nil, &domain.DuplicateUUIDError{UUID: fields.UUID}
	}

	inv := &entity.Invoice{
		ID:           uuid.New().String(),
		ClientName:   fields.ClientName,
		ReceiverRFC:  fields.ReceiverRFC,
		EmissionDate: fields.EmissionDate,
		UUID:         fields.UUID,
		Subtotal:     fields.Subtotal,
		Total:        fields.Total,
		XMLContent:   fields.XMLContent,
	}
	if err := validateAmounts(inv); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("uuid", inv.UUID).Msg("factura cargada desde XML")
	return uc.toResponse(inv), nil
}

// Create crea una factura con datos explícitos (sin XML obligatorio).
func (uc *InvoiceUseCase) Create(ctx context.Context, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ReceiverRFC = strings.TrimSpace(in.ReceiverRFC)
	in.UUID = strings.TrimSpace(in.UUID)
	if err := uc.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	date, err := time.Parse(dateLayout, in.EmissionDate)
	if err != nil {
		return nil, domain.NewValidationError("emission_date", "debe tener formato YYYY-MM-DD")
	}
	rfc := in.ReceiverRFC
	if rfc == "" {
		rfc = catalog.GenericRFC
	}

	inv := &entity.Invoice{
		ID:           uuid.New().String(),
		ClientName:   in.ClientName,
		ReceiverRFC:  rfc,
		EmissionDate: date,
		UUID:         in.UUID,
		Subtotal:     in.Subtotal,
		Total:        in.Total,
		XMLContent:   in.XMLContent,
	}
	if err := validateAmounts(inv); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("uuid", inv.UUID).Msg("factura creada")
	return uc.toResponse(inv), nil
}

// List todas las facturas, por fecha de emisión descendente.
func (uc *InvoiceUseCase) List(ctx context.Context) ([]dto.InvoiceResponse, error) {
	invoices, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}
	out := make([]dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, *uc.toResponse(inv))
	}
	return out, nil
}

// Get devuelve una factura o domain.ErrNotFound.
func (uc *InvoiceUseCase) Get(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(inv), nil
}

// RequestComplement encola la generación del complemento de pago.
//
// Retorna:
//   - domain.ErrNotFound                   si la factura no existe.
//   - domain.ErrComplementAlreadyGenerated si ya tiene complemento.
//   - el error de la cola (llena o detenida).
func (uc *InvoiceUseCase) RequestComplement(ctx context.Context, id string) (*dto.ComplementRequestedResponse, error) {
	inv, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PaymentComplementGenerated {
		return nil, domain.ErrComplementAlreadyGenerated
	}
	if err := uc.queue.Enqueue(ctx, inv.ID); err != nil {
		return nil, fmt.Errorf("encolar complemento: %w", err)
	}
	uc.log.Info().Str("invoice_id", inv.ID).Msg("generación de complemento solicitada")
	return &dto.ComplementRequestedResponse{Message: ComplementInProgressMessage, InvoiceID: inv.ID}, nil
}

// DownloadPDF representación PDF del complemento y nombre de archivo sugerido.
func (uc *InvoiceUseCase) DownloadPDF(ctx context.Context, id string) ([]byte, string, error) {
	return uc.download(ctx, id, entity.ArtifactPDF)
}

// DownloadXML XML del complemento y nombre de archivo sugerido.
func (uc *InvoiceUseCase) DownloadXML(ctx context.Context, id string) ([]byte, string, error) {
	return uc.download(ctx, id, entity.ArtifactXML)
}

func (uc *InvoiceUseCase) download(ctx context.Context, id string, kind entity.ArtifactKind) ([]byte, string, error) {
	inv, err := uc.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	identifier := inv.ArtifactIdentifier()
	data, err := uc.artifacts.Resolve(ctx, kind, identifier)
	if err != nil {
		return nil, "", fmt.Errorf("resolver %s %s: %w", kind, identifier, err)
	}
	if len(data) == 0 {
		return nil, "", domain.ErrNotFound
	}
	return data, DownloadFilename(inv, kind), nil
}

// DownloadFilename complemento_pago_{uuid}.{pdf|xml}
func DownloadFilename(inv *entity.Invoice, kind entity.ArtifactKind) string {
	return "complemento_pago_" + inv.UUID + kind.Extension()
}

func (uc *InvoiceUseCase) load(ctx context.Context, id string) (*entity.Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrNotFound
	}
	inv, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// maxAmount límite exclusivo de las columnas NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

// validateAmounts revisa los montos tal como quedarán en la base: redondeados
// a 2 decimales, positivos y dentro de NUMERIC(12,2).
func validateAmounts(inv *entity.Invoice) error {
	verr := &domain.ValidationError{Fields: map[string]string{}}
	if msg, ok := amountMessage(inv.Subtotal); !ok {
		verr.Fields["subtotal"] = msg
	}
	if msg, ok := amountMessage(inv.Total); !ok {
		verr.Fields["total"] = msg
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func amountMessage(d decimal.Decimal) (string, bool) {
	rounded := d.Round(2)
	switch {
	case !rounded.IsPositive():
		return "debe ser mayor a 0", false
	case !rounded.LessThan(maxAmount):
		return "debe ser menor a " + maxAmount.String(), false
	}
	return "", true
}

func (uc *InvoiceUseCase) toResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	base := uc.routePrefix + "/invoices/" + inv.ID
	return &dto.InvoiceResponse{
		ID:                         inv.ID,
		ClientName:                 inv.ClientName,
		ReceiverRFC:                inv.ReceiverRFC,
		EmissionDate:               inv.EmissionDate.Format(dateLayout),
		UUID:                       inv.UUID,
		Subtotal:                   inv.Subtotal.InexactFloat64(),
		Total:                      inv.Total.InexactFloat64(),
		Status:                     inv.Status(),
		PaymentStatus:              inv.PaymentStatusLabel(),
		PaymentComplementGenerated: inv.PaymentComplementGenerated,
		FacturamaID:                inv.FacturamaID,
		ComplementUUID:             inv.ComplementUUID,
		PDFURL:                     base + "/download_pdf",
		XMLURL:                     base + "/download_xml",
	}
}
