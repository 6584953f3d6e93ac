package fiscal_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/ecf-api/internal/application/fiscal"
	"github.com/jhoicas/ecf-api/internal/domain/entity"
	"github.com/jhoicas/ecf-api/internal/domain/repository"
	"github.com/jhoicas/ecf-api/internal/infrastructure/dgii"
)

// ──────────────────────────────────────────────────────────────────────────────
// Transporte stub (mismo contrato que dgii.Transport)
// ──────────────────────────────────────────────────────────────────────────────

type stubCall struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
}

type stubTransport struct {
	mu        sync.Mutex
	calls     []stubCall
	responses map[string][]map[string]any
	errs      map[string]error
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		responses: map[string][]map[string]any{},
		errs:      map[string]error{},
	}
}

func (s *stubTransport) respond(url string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[url] = append(s.responses[url], data)
}

func (s *stubTransport) fail(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[url] = err
}

func (s *stubTransport) DoJSON(ctx context.Context, method, url string, headers map[string]string, body any) (map[string]any, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, stubCall{Method: method, URL: url, Headers: headers, Body: body})
	if err, ok := s.errs[url]; ok {
		return nil, 500, err
	}
	queue := s.responses[url]
	if len(queue) == 0 {
		return nil, 404, fmt.Errorf("stub: sin respuesta para %s", url)
	}
	data := queue[0]
	s.responses[url] = queue[1:]
	return data, 200, nil
}

func (s *stubTransport) callsTo(url string) []stubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []stubCall
	for _, c := range s.calls {
		if c.URL == url {
			out = append(out, c)
		}
	}
	return out
}

func (s *stubTransport) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// ──────────────────────────────────────────────────────────────────────────────
// Firmador fake
// ──────────────────────────────────────────────────────────────────────────────

// passthroughSigner marca el payload como firmado sin criptografía real.
type passthroughSigner struct {
	calls int
	err   error
}

func (p *passthroughSigner) SignXML(xmlPayload string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "<signed>" + xmlPayload + "</signed>", nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Repos en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memConfigRepo struct {
	mu      sync.Mutex
	configs []*entity.VoucherConfig
}

func (r *memConfigRepo) GetByID(ctx context.Context, id string) (*entity.VoucherConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.configs {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memConfigRepo) GetFirst(ctx context.Context) (*entity.VoucherConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.configs) == 0 {
		return nil, nil
	}
	cp := *r.configs[0]
	return &cp, nil
}

func (r *memConfigRepo) GetForUpdate(ctx context.Context, id string) (*entity.VoucherConfig, error) {
	if id == "" {
		return r.GetFirst(ctx)
	}
	return r.GetByID(ctx, id)
}

func (r *memConfigRepo) UpdateSequence(ctx context.Context, id string, next int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.configs {
		if c.ID == id {
			c.SecuenciaSiguiente = next
			return nil
		}
	}
	return fmt.Errorf("configuración %s no existe", id)
}

type memVoucherRepo struct {
	mu       sync.Mutex
	vouchers map[string]*entity.Voucher
	lines    map[string][]*entity.VoucherLine
}

func newMemVoucherRepo() *memVoucherRepo {
	return &memVoucherRepo{
		vouchers: map[string]*entity.Voucher{},
		lines:    map[string][]*entity.VoucherLine{},
	}
}

func (r *memVoucherRepo) Create(ctx context.Context, v *entity.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.vouchers {
		if existing.NumeroCompleto == v.NumeroCompleto {
			return fmt.Errorf("comprobante %s duplicado", v.NumeroCompleto)
		}
	}
	cp := *v
	r.vouchers[v.ID] = &cp
	return nil
}

func (r *memVoucherRepo) CreateLine(ctx context.Context, line *entity.VoucherLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *line
	r.lines[line.VoucherID] = append(r.lines[line.VoucherID], &cp)
	return nil
}

func (r *memVoucherRepo) GetByID(ctx context.Context, id string) (*entity.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *memVoucherRepo) GetLines(ctx context.Context, voucherID string) ([]*entity.VoucherLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.VoucherLine
	for _, l := range r.lines[voucherID] {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memVoucherRepo) UpdateSubmission(ctx context.Context, v *entity.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vouchers[v.ID]
	if !ok {
		return fmt.Errorf("comprobante %s no existe", v.ID)
	}
	stored.DGIIEstado = v.DGIIEstado
	stored.DGIITrackID = v.DGIITrackID
	stored.DGIIRespuesta = v.DGIIRespuesta
	stored.DGIIEnviadoAt = v.DGIIEnviadoAt
	return nil
}

// memTxRunner serializa los callbacks con un mutex, igual que el lock de fila
// de la configuración serializa las emisiones concurrentes en PostgreSQL.
type memTxRunner struct {
	mu          sync.Mutex
	configRepo  *memConfigRepo
	voucherRepo *memVoucherRepo
}

func (r *memTxRunner) RunFiscal(ctx context.Context, fn func(
	configRepo repository.VoucherConfigRepository,
	voucherRepo repository.VoucherRepository,
) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.configRepo, r.voucherRepo)
}

var (
	_ repository.VoucherConfigRepository = (*memConfigRepo)(nil)
	_ repository.VoucherRepository       = (*memVoucherRepo)(nil)
	_ fiscal.FiscalTxRunner              = (*memTxRunner)(nil)
	_ dgii.Transport                     = (*stubTransport)(nil)
	_ dgii.XMLSigner                     = (*passthroughSigner)(nil)
)
