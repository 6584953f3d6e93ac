// Cliente HTTP autenticado hacia la DGII. Cachea el token OAuth por
// instancia y lo renueva cuando expira, con margen de seguridad para
// desfase de reloj.

package dgii

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// DefaultTokenMargin margen antes de la expiración a partir del cual el
// token se considera vencido.
const DefaultTokenMargin = 30 * time.Second

// Credentials credenciales OAuth de la petición (normalmente desde la
// configuración del contribuyente). ClientSecret nunca se registra en logs.
type Credentials struct {
	AuthURL      string
	ClientID     string
	ClientSecret string
}

// ClientResponse respuesta decodificada de un envío autenticado.
type ClientResponse struct {
	Data       map[string]any
	StatusCode int
}

// Client envía peticiones JSON autenticadas, gestionando el ciclo de vida
// del token. Seguro para uso concurrente.
type Client struct {
	transport Transport
	auth      *AuthClient
	margin    time.Duration
	now       func() time.Time

	mu     sync.Mutex
	tokens *AuthTokens
}

// NewClient crea el cliente. margin <= 0 usa DefaultTokenMargin.
func NewClient(transport Transport, auth *AuthClient, margin time.Duration) *Client {
	if margin <= 0 {
		margin = DefaultTokenMargin
	}
	return &Client{
		transport: transport,
		auth:      auth,
		margin:    margin,
		now:       time.Now,
	}
}

// PostJSON envía body al url con token válido (reutilizado o renovado).
func (c *Client) PostJSON(ctx context.Context, url string, body any, creds Credentials, extraHeaders map[string]string) (*ClientResponse, error) {
	tokens, err := c.ensureToken(ctx, creds)
	if err != nil {
		return nil, &ClientError{Msg: "no se pudo obtener el token de autenticación", Err: err}
	}

	headers := map[string]string{
		"Authorization": tokens.TokenType + " " + tokens.AccessToken,
		"Content-Type":  "application/json",
	}
	for k, v := range extraHeaders {
		headers[k] = v
	}

	data, status, err := c.transport.DoJSON(ctx, http.MethodPost, url, headers, body)
	if err != nil {
		return nil, &ClientError{Msg: "falló el envío a " + url, Err: err}
	}
	return &ClientResponse{Data: data, StatusCode: status}, nil
}

// InvalidateToken descarta el token cacheado; el próximo envío autentica de nuevo.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = nil
}

func (c *Client) ensureToken(ctx context.Context, creds Credentials) (*AuthTokens, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokens != nil && !c.tokenExpired(c.tokens) {
		return c.tokens, nil
	}

	tokens, err := c.auth.ObtainToken(ctx, creds.AuthURL, creds.ClientID, creds.ClientSecret)
	if err != nil {
		return nil, err
	}
	c.tokens = tokens
	return tokens, nil
}

// tokenExpired considera vencido un token cuando ahora + margen alcanza su
// expiración, compensando desfase de reloj con el servidor.
func (c *Client) tokenExpired(t *AuthTokens) bool {
	return !c.now().Add(c.margin).Before(t.ExpiresAt)
}
