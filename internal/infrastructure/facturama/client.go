// Package facturama adaptador HTTP del API Lite de Facturama (CFDI 4.0):
// descarga de PDF/XML y timbrado de complementos de pago.
package facturama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/pkg/config"
)

const (
	cfdisPath       = "/api-lite/3/cfdis"
	issuedPath      = "/api-lite/3/cfdis/issued"
	maxArtifactSize = 20 << 20
	maxJSONSize     = 1 << 20
	timeoutMessage  = "timeout"
)

// Client cliente sin estado; se construye una vez con la configuración y se comparte.
type Client struct {
	baseURL         string
	username        string
	password        string
	downloadTimeout time.Duration
	submitTimeout   time.Duration
	httpClient      *http.Client
	log             zerolog.Logger
}

// NewClient construye el cliente. ConnectTimeout limita el dial TCP/TLS; los
// timeouts de descarga y envío se aplican por llamada con context.WithTimeout.
func NewClient(cfg config.FacturamaConfig, log zerolog.Logger) *Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout

	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		username:        cfg.Username,
		password:        cfg.Password,
		downloadTimeout: cfg.DownloadTimeout,
		submitTimeout:   cfg.SubmitTimeout,
		httpClient:      &http.Client{Transport: transport},
		log:             log,
	}
}

// FetchArtifact descarga el PDF/XML de id. Si el endpoint estándar responde 404
// se intenta una única vez el endpoint de CFDIs emitidos.
func (c *Client) FetchArtifact(ctx context.Context, kind entity.ArtifactKind, id string) (*FetchResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("facturama: tipo de archivo inválido %q", kind)
	}
	escaped := url.PathEscape(id)

	primary := fmt.Sprintf("%s%s/%s/%s", c.baseURL, cfdisPath, escaped, kind)
	res, err := c.download(ctx, primary)
	if err != nil {
		var extErr *domain.ExternalServiceError
		if !errors.As(err, &extErr) || extErr.StatusCode != http.StatusNotFound {
			return nil, err
		}
		c.log.Debug().Str("id", id).Str("kind", string(kind)).Msg("endpoint estándar 404, intentando endpoint de emitidos")

		issued := fmt.Sprintf("%s%s/%s/%s", c.baseURL, issuedPath, escaped, kind)
		return c.download(ctx, issued)
	}
	return res, nil
}

func (c *Client) download(ctx context.Context, endpoint string) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("facturama: crear request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ExternalServiceError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}
	return &FetchResult{Body: decodeFile(resp.Header.Get("Content-Type"), body), StatusCode: resp.StatusCode, Endpoint: endpoint}, nil
}

// CreateComplement timbra un complemento de pago.
func (c *Client) CreateComplement(ctx context.Context, payload ComplementRequest) (*ComplementResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("facturama: serializar complemento: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+cfdisPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("facturama: crear request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONSize))
	if err != nil {
		return nil, transportError(err)
	}

	c.log.Debug().Int("status", resp.StatusCode).Str("folio", payload.Folio).Msg("respuesta de Facturama")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ExternalServiceError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	var out ComplementResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &domain.ExternalServiceError{StatusCode: resp.StatusCode, Message: "respuesta inválida: " + err.Error()}
	}
	if _, ok := out.DocumentID(); !ok {
		return nil, &domain.ExternalServiceError{StatusCode: resp.StatusCode, Message: "respuesta sin Id de documento"}
	}
	return &out, nil
}

// transportError convierte errores de red en ExternalServiceError, marcando los timeouts.
func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.ExternalServiceError{Message: timeoutMessage, Timeout: true}
	}
	return &domain.ExternalServiceError{Message: err.Error()}
}

// errorMessage Message del cuerpo JSON; si no, ModelState; si no, el cuerpo crudo.
func errorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if strings.TrimSpace(eb.Message) != "" {
			return eb.Message
		}
		if len(eb.ModelState) > 0 {
			keys := make([]string, 0, len(eb.ModelState))
			for k := range eb.ModelState {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var parts []string
			for _, k := range keys {
				parts = append(parts, strings.Join(eb.ModelState[k], ", "))
			}
			return strings.Join(parts, "; ")
		}
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		return raw
	}
	return http.StatusText(status)
}

// decodeFile devuelve el contenido decodificado si la respuesta viene como
// {"ContentEncoding":"base64","Content":"..."}; si no, el cuerpo tal cual.
func decodeFile(contentType string, body []byte) []byte {
	if !strings.Contains(contentType, "json") && !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return body
	}
	var fb fileBody
	if err := json.Unmarshal(body, &fb); err != nil || fb.Content == "" {
		return body
	}
	if !strings.EqualFold(fb.ContentEncoding, "base64") {
		return []byte(fb.Content)
	}
	decoded, err := base64.StdEncoding.DecodeString(fb.Content)
	if err != nil {
		return body
	}
	return decoded
}
