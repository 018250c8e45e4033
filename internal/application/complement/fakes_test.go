package complement_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/complementos-api/internal/application/complement"
	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/infrastructure/facturama"
)

// ── almacén ───────────────────────────────────────────────────────────────────

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	puts   int
	putErr error
	getErr error
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, kind entity.ArtifactKind, id string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	d, ok := s.data[string(kind)+"/"+id]
	return d, ok, nil
}

func (s *memStore) Put(_ context.Context, kind entity.ArtifactKind, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.data[string(kind)+"/"+id] = data
	return nil
}

func (s *memStore) stored(kind entity.ArtifactKind, id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[string(kind)+"/"+id]
	return d, ok
}

// ── descarga remota ───────────────────────────────────────────────────────────

type fakeFetcher struct {
	calls int32
	body  []byte
	err   error
}

func (f *fakeFetcher) FetchArtifact(_ context.Context, _ entity.ArtifactKind, _ string) (*facturama.FetchResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &facturama.FetchResult{Body: f.body, StatusCode: 200, Endpoint: "fake"}, nil
}

func (f *fakeFetcher) count() int { return int(atomic.LoadInt32(&f.calls)) }

type fakePDF struct{}

func (fakePDF) PlaceholderPDF(_ context.Context, id string) ([]byte, error) {
	return []byte("%PDF-demo " + id), nil
}

// ── cliente Facturama ─────────────────────────────────────────────────────────

type fakeClient struct {
	mu       sync.Mutex
	requests []facturama.ComplementRequest
	resp     *facturama.ComplementResponse
	err      error
}

func (c *fakeClient) CreateComplement(_ context.Context, p facturama.ComplementRequest) (*facturama.ComplementResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, p)
	return c.resp, c.err
}

func strPtr(s string) *string { return &s }

func okResponse(id, uuid string) *facturama.ComplementResponse {
	var resp facturama.ComplementResponse
	raw := `{"Id":"` + id + `","Complement":{"TaxStamp":{"Uuid":"` + uuid + `"}}}`
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		panic(err)
	}
	return &resp
}

// ── repositorio ───────────────────────────────────────────────────────────────

type memRepo struct {
	mu       sync.Mutex
	invoices map[string]*entity.Invoice
	getErr   error
	marks    int
}

func newMemRepo(invs ...*entity.Invoice) *memRepo {
	r := &memRepo{invoices: map[string]*entity.Invoice{}}
	for _, inv := range invs {
		r.invoices[inv.ID] = inv
	}
	return r
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
	if r.getErr != nil {
		return nil, r.getErr
	}
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
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
	r.marks++
	inv, ok := r.invoices[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if inv.PaymentComplementGenerated {
		return false, nil
	}
	inv.PaymentComplementGenerated = true
	inv.FacturamaID = strPtr(facturamaID)
	if complementUUID != "" {
		inv.ComplementUUID = strPtr(complementUUID)
	}
	return true, nil
}

// ── resolver que registra llamadas ────────────────────────────────────────────

type resolveCall struct {
	kind entity.ArtifactKind
	id   string
}

type recordingResolver struct {
	mu    sync.Mutex
	calls []resolveCall
	err   error
}

func (r *recordingResolver) Resolve(_ context.Context, kind entity.ArtifactKind, id string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, resolveCall{kind, id})
	if r.err != nil {
		return nil, r.err
	}
	return []byte("ok"), nil
}

// ── requester fijo ────────────────────────────────────────────────────────────

type stubRequester struct {
	calls int32
	res   complement.Result
}

func (s *stubRequester) Request(_ context.Context, _ *entity.Invoice) complement.Result {
	atomic.AddInt32(&s.calls, 1)
	return s.res
}

var errBoom = errors.New("boom")
