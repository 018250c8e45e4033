package complement_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/complementos-api/internal/application/complement"
	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/infrastructure/facturama"
	"github.com/jhoicas/complementos-api/pkg/config"
)

var testIssuer = config.IssuerConfig{
	RFC:             "XIA190128J61",
	Name:            "XENON INDUSTRIAL ARTICLES",
	FiscalRegime:    "601",
	ExpeditionPlace: "76343",
}

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func testInvoice() *entity.Invoice {
	return &entity.Invoice{
		ID:           "0b6b0f0e-1d1a-4a39-9a57-2f4a8f1f0c11",
		ClientName:   "ACME SA",
		ReceiverRFC:  "ACM010101ABC",
		EmissionDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		UUID:         "6F1E2D3C-1111-2222-3333-444455556666",
		Subtotal:     decimal.RequireFromString("862.07"),
		Total:        decimal.RequireFromString("1000.00"),
		XMLContent:   `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4"><cfdi:Receptor DomicilioFiscalReceptor="06600"/></cfdi:Comprobante>`,
	}
}

func newRequester(client complement.ComplementClient) *complement.Requester {
	return complement.NewRequester(client, testIssuer, zerolog.Nop()).WithClock(func() time.Time { return fixedNow })
}

func TestBuildRequest(t *testing.T) {
	req := newRequester(&fakeClient{}).BuildRequest(testInvoice())

	assert.Equal(t, "0b6b0f0e-1d1a-4a39-9a57-2f4a8f1f0c11", req.Folio)
	assert.Equal(t, "CP", req.Serie)
	assert.Equal(t, "P", req.CfdiType)
	assert.Equal(t, "76343", req.ExpeditionPlace)
	assert.Equal(t, facturama.Issuer{FiscalRegime: "601", Rfc: "XIA190128J61", Name: "XENON INDUSTRIAL ARTICLES"}, req.Issuer)
	assert.Equal(t, facturama.Receiver{
		Rfc: "ACM010101ABC", Name: "ACME SA", FiscalRegime: "601", TaxZipCode: "06600", CfdiUse: "CP01",
	}, req.Receiver)

	require.Len(t, req.Complemento.Payments, 1)
	p := req.Complemento.Payments[0]
	assert.Equal(t, "2024-06-01T09:30:00Z", p.Date)
	assert.Equal(t, "03", p.PaymentForm)
	assert.Equal(t, "MXN", p.Currency)
	assert.Equal(t, "1000.00", p.Amount.StringFixed(2))

	require.Len(t, p.RelatedDocuments, 1)
	d := p.RelatedDocuments[0]
	assert.Equal(t, "6F1E2D3C-1111-2222-3333-444455556666", d.Uuid)
	assert.Equal(t, "PPD", d.PaymentMethod)
	assert.Equal(t, 1, d.PartialityNumber)
	assert.True(t, d.PreviousBalanceAmount.Equal(decimal.RequireFromString("1000")))
	assert.True(t, d.AmountPaid.Equal(decimal.RequireFromString("1000")))
	assert.True(t, d.ImpSaldoInsoluto.IsZero())
	assert.Equal(t, "02", d.TaxObject)

	require.Len(t, d.Taxes, 1)
	tax := d.Taxes[0]
	assert.Equal(t, "160.00", tax.Total.StringFixed(2))
	assert.Equal(t, "IVA", tax.Name)
	assert.Equal(t, "0.16", tax.Rate.String())
	assert.False(t, tax.IsRetention)
}

func TestBuildRequest_CodigoPostalPorDefecto(t *testing.T) {
	inv := testInvoice()
	inv.XMLContent = ""
	req := newRequester(&fakeClient{}).BuildRequest(inv)
	assert.Equal(t, "76343", req.Receiver.TaxZipCode)
}

func TestTaxAmount(t *testing.T) {
	assert.Equal(t, "160.00", complement.TaxAmount(decimal.RequireFromString("1000.00")).StringFixed(2))
	assert.Equal(t, "0.02", complement.TaxAmount(decimal.RequireFromString("0.10")).StringFixed(2))
	assert.Equal(t, "19.75", complement.TaxAmount(decimal.RequireFromString("123.45")).StringFixed(2))
}

func TestRequest_Exito(t *testing.T) {
	client := &fakeClient{resp: okResponse("F1", "CPX")}
	res := newRequester(client).Request(context.Background(), testInvoice())

	assert.Equal(t, complement.Result{Success: true, FacturamaID: "F1", ComplementUUID: "CPX"}, res)
	assert.NoError(t, res.Err())
	require.Len(t, client.requests, 1)
}

func TestRequest_SinComplementUUID(t *testing.T) {
	client := &fakeClient{resp: &facturama.ComplementResponse{ID: strPtr("F2")}}
	res := newRequester(client).Request(context.Background(), testInvoice())
	assert.True(t, res.Success)
	assert.Equal(t, "F2", res.FacturamaID)
	assert.Empty(t, res.ComplementUUID)
}

func TestRequest_FallaConMensajeDeFacturama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"Message":"bad payload"}`))
	}))
	defer srv.Close()

	client := facturama.NewClient(config.FacturamaConfig{
		BaseURL: srv.URL, Username: "u", Password: "p",
		DownloadTimeout: time.Second, SubmitTimeout: time.Second, ConnectTimeout: time.Second,
	}, zerolog.Nop())

	res := newRequester(client).Request(context.Background(), testInvoice())
	assert.False(t, res.Success)
	assert.Equal(t, "bad payload", res.Error)
	assert.False(t, res.Timeout)
	assert.ErrorIs(t, res.Err(), domain.ErrExternalService)
}

func TestRequest_Timeout(t *testing.T) {
	client := &fakeClient{err: &domain.ExternalServiceError{Message: "timeout", Timeout: true}}
	res := newRequester(client).Request(context.Background(), testInvoice())
	assert.False(t, res.Success)
	assert.Equal(t, "timeout", res.Error)
	assert.True(t, res.Timeout)
	assert.ErrorIs(t, res.Err(), domain.ErrTimeout)
}

func TestRequest_OtroError(t *testing.T) {
	res := newRequester(&fakeClient{err: errBoom}).Request(context.Background(), testInvoice())
	assert.False(t, res.Success)
	assert.Equal(t, "boom", res.Error)
}

func TestRequest_RespuestaSinId(t *testing.T) {
	res := newRequester(&fakeClient{resp: &facturama.ComplementResponse{}}).Request(context.Background(), testInvoice())
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}
