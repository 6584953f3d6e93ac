// Transporte HTTP de bajo nivel hacia los servicios DGII. Solo maneja
// serialización JSON y códigos de estado; la autenticación vive en Client.

package dgii

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes límite de lectura de respuestas DGII.
const maxResponseBytes = 1 << 20

// Transport puerto del canal HTTP JSON. Fakeable en tests para contar
// llamadas y simular respuestas del servicio.
type Transport interface {
	DoJSON(ctx context.Context, method, url string, headers map[string]string, body any) (map[string]any, int, error)
}

// HTTPTransport implementa Transport sobre net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport crea el transporte. Con client nil usa uno propio con
// timeout de 15 segundos.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPTransport{client: client}
}

// DoJSON ejecuta la petición y decodifica la respuesta JSON como mapa.
// Respuestas fuera de 2xx son error; un cuerpo vacío con 2xx devuelve mapa vacío.
func (t *HTTPTransport) DoJSON(ctx context.Context, method, url string, headers map[string]string, body any) (map[string]any, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("serializar cuerpo de la petición: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("construir petición %s %s: %w", method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("petición %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("leer respuesta de %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("respuesta %d de %s: %s", resp.StatusCode, url, truncate(raw, 256))
	}

	data := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("respuesta de %s no es JSON: %w", url, err)
		}
	}
	return data, resp.StatusCode, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ Transport = (*HTTPTransport)(nil)
