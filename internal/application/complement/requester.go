package complement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/cfdi"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/infrastructure/facturama"
	catalog "github.com/jhoicas/complementos-api/pkg/cfdi"
	"github.com/jhoicas/complementos-api/pkg/config"
)

var ivaRate = decimal.RequireFromString(catalog.TaxRateIVA)

// Result resultado de una solicitud de complemento. Nunca se devuelve como error:
// Success indica el desenlace.
type Result struct {
	Success        bool
	FacturamaID    string
	ComplementUUID string
	Error          string
	StatusCode     int
	Timeout        bool
}

// Err convierte un resultado fallido en *domain.ExternalServiceError (nil si Success).
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &domain.ExternalServiceError{Message: r.Error, StatusCode: r.StatusCode, Timeout: r.Timeout}
}

// Requester arma el payload del complemento a partir de la factura y lo envía.
type Requester struct {
	client ComplementClient
	issuer config.IssuerConfig
	log    zerolog.Logger
	now    func() time.Time
}

// NewRequester construye el solicitante con los datos fijos del emisor.
func NewRequester(client ComplementClient, issuer config.IssuerConfig, log zerolog.Logger) *Requester {
	return &Requester{client: client, issuer: issuer, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (fecha del pago).
func (r *Requester) WithClock(now func() time.Time) *Requester {
	r.now = now
	return r
}

// Request envía la solicitud y traduce la respuesta. No entra en pánico ni devuelve error.
func (r *Requester) Request(ctx context.Context, invoice *entity.Invoice) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Msg("pánico al solicitar complemento")
			res = Result{Error: fmt.Sprint(p)}
		}
	}()
	if invoice == nil {
		return Result{Error: "factura nula"}
	}

	payload := r.BuildRequest(invoice)
	log := r.log.With().Str("invoice_id", invoice.ID).Str("uuid", invoice.UUID).Logger()
	log.Info().Str("zip_code", payload.Receiver.TaxZipCode).Msg("enviando complemento de pago a Facturama")

	resp, err := r.client.CreateComplement(ctx, payload)
	if err != nil {
		var extErr *domain.ExternalServiceError
		if errors.As(err, &extErr) {
			log.Warn().Err(err).Bool("timeout", extErr.Timeout).Msg("Facturama rechazó el complemento")
			return Result{Error: extErr.Message, StatusCode: extErr.StatusCode, Timeout: extErr.Timeout}
		}
		log.Error().Err(err).Msg("error al solicitar complemento")
		return Result{Error: err.Error()}
	}

	id, ok := resp.DocumentID()
	if !ok {
		return Result{Error: "respuesta sin Id de documento"}
	}
	complementUUID, _ := resp.ComplementUUID()
	log.Info().Str("facturama_id", id).Str("complement_uuid", complementUUID).Msg("complemento generado")
	return Result{Success: true, FacturamaID: id, ComplementUUID: complementUUID}
}

// BuildRequest payload CFDI tipo "P" con un pago total (PPD, una parcialidad, saldo insoluto 0).
func (r *Requester) BuildRequest(invoice *entity.Invoice) facturama.ComplementRequest {
	zip, ok := cfdi.ExtractPostalCode(invoice.XMLContent)
	if !ok {
		zip = catalog.DefaultPostalCode
	}
	total := invoice.Total

	return facturama.ComplementRequest{
		Folio:           invoice.ID,
		Serie:           catalog.SeriesComplement,
		ExpeditionPlace: r.issuer.ExpeditionPlace,
		CfdiType:        catalog.CfdiTypePayment,
		Issuer: facturama.Issuer{
			FiscalRegime: r.issuer.FiscalRegime,
			Rfc:          r.issuer.RFC,
			Name:         r.issuer.Name,
		},
		Receiver: facturama.Receiver{
			Rfc:          invoice.ReceiverRFC,
			Name:         invoice.ClientName,
			FiscalRegime: catalog.FiscalRegimeGeneral,
			TaxZipCode:   zip,
			CfdiUse:      catalog.CfdiUsePayments,
		},
		Complemento: facturama.Complemento{
			Payments: []facturama.Payment{{
				Date:        r.now().Format(time.RFC3339),
				PaymentForm: catalog.PaymentFormTransfer,
				Currency:    catalog.CurrencyMXN,
				Amount:      facturama.NewAmount(total),
				RelatedDocuments: []facturama.RelatedDocument{{
					Uuid:                  invoice.UUID,
					Currency:              catalog.CurrencyMXN,
					PaymentMethod:         catalog.PaymentMethodPartial,
					PartialityNumber:      catalog.FirstPartialityNumber,
					PreviousBalanceAmount: facturama.NewAmount(total),
					AmountPaid:            facturama.NewAmount(total),
					ImpSaldoInsoluto:      facturama.NewAmount(decimal.Zero),
					TaxObject:             catalog.TaxObjectSubject,
					Taxes: []facturama.Tax{{
						Total:       facturama.NewAmount(TaxAmount(total)),
						Name:        catalog.TaxNameIVA,
						Base:        facturama.NewAmount(total),
						Rate:        facturama.NewAmount(ivaRate),
						IsRetention: false,
					}},
				}},
			}},
		},
	}
}

// TaxAmount IVA del total redondeado a 2 decimales (mitad alejándose de cero).
func TaxAmount(total decimal.Decimal) decimal.Decimal {
	return total.Mul(ivaRate).Round(2)
}
