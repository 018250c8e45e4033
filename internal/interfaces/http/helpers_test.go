package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/complementos-api/internal/application/billing"
	"github.com/jhoicas/complementos-api/internal/application/complement"
	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/infrastructure/artifacts"
	"github.com/jhoicas/complementos-api/internal/infrastructure/facturama"
	"github.com/jhoicas/complementos-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/complementos-api/internal/interfaces/http"
	"github.com/jhoicas/complementos-api/internal/observability/metrics"
	"github.com/jhoicas/complementos-api/pkg/config"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Fecha="2024-01-15T10:30:00" SubTotal="862.07" Total="1000.00">
  <cfdi:Receptor Rfc="ACM010101ABC" Nombre="ACME SA" DomicilioFiscalReceptor="06600"/>
  <cfdi:Complemento>
    <tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" UUID="6F1E2D3C-1111-2222-3333-444455556666"/>
  </cfdi:Complemento>
</cfdi:Comprobante>`

// memRepo repositorio en memoria con el contrato de InvoiceRepository.
type memRepo struct {
	mu       sync.Mutex
	invoices map[string]*entity.Invoice
}

func (r *memRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if existing.UUID == inv.UUID {
			return &domain.DuplicateUUIDError{UUID: inv.UUID}
		}
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invoices[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) GetByUUID(_ context.Context, uuid string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.UUID == uuid {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) List(_ context.Context) ([]*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		cp := *inv
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) MarkComplementGenerated(_ context.Context, id, facturamaID, complementUUID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if inv.PaymentComplementGenerated {
		return false, nil
	}
	inv.PaymentComplementGenerated = true
	inv.FacturamaID = &facturamaID
	inv.ComplementUUID = &complementUUID
	return true, nil
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) Enqueue(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

type testEnv struct {
	app   *fiber.App
	repo  *memRepo
	queue *recordingQueue
	reg   *prometheus.Registry
}

// newTestEnv arma la app completa: caso de uso real, caché de artefactos sobre
// afero en memoria y un Facturama falso que responde 404 a todo (fallback a demo).
func newTestEnv(t *testing.T, auth config.AuthConfig) *testEnv {
	t.Helper()
	log := zerolog.Nop()

	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"Message":"not found"}`))
	}))
	t.Cleanup(fake.Close)

	client := facturama.NewClient(config.FacturamaConfig{
		BaseURL:         fake.URL,
		Username:        "u",
		Password:        "p",
		DownloadTimeout: 2 * time.Second,
		SubmitTimeout:   2 * time.Second,
		ConnectTimeout:  time.Second,
	}, log)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := artifacts.NewFileStore(afero.NewMemMapFs(), "/invoices")
	cache := complement.NewArtifactCache(store, client, pdf.NewMarotoPlaceholderGenerator(log), m, log)

	repo := &memRepo{invoices: map[string]*entity.Invoice{}}
	queue := &recordingQueue{}
	uc := billing.NewInvoiceUseCase(repo, queue, cache, apphttp.APIPrefix, log)

	app := fiber.New()
	app.Use(apphttp.RequestLogger(log, m))
	apphttp.Router(app, apphttp.RouterDeps{
		InvoiceUC: uc,
		Auth:      auth,
		Gatherer:  reg,
		AppName:   "complementos-api-test",
		Log:       log,
	})
	return &testEnv{app: app, repo: repo, queue: queue, reg: reg}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, path, field, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "factura.xml")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("otro", "valor"))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}
