// Flujo OAuth2 client-credentials contra el endpoint de autenticación DGII.

package dgii

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const oauthScope = "facturacion-electronica"

// AuthRequest petición de token lista para enviar. El payload contiene el
// client_secret: no debe registrarse en logs.
type AuthRequest struct {
	URL     string
	Payload map[string]string
}

// AuthTokens tokens emitidos por la DGII con su expiración absoluta.
type AuthTokens struct {
	AccessToken  string
	TokenType    string
	ExpiresAt    time.Time
	RefreshToken string
	Scope        string
	Raw          map[string]any
}

// BuildAuthPayload arma el cuerpo client-credentials.
func BuildAuthPayload(clientID, clientSecret string) map[string]string {
	return map[string]string{
		"client_id":     clientID,
		"client_secret": clientSecret,
		"grant_type":    "client_credentials",
		"scope":         oauthScope,
	}
}

// TokensFromResponse interpreta la respuesta del endpoint de token. El
// access_token es obligatorio; la expiración acepta "expires_in" o "expires"
// como número o cadena numérica.
func TokensFromResponse(data map[string]any, now time.Time) (*AuthTokens, error) {
	accessToken, _ := data["access_token"].(string)
	if accessToken == "" {
		return nil, &AuthError{Msg: "la respuesta de autenticación no contiene access_token"}
	}

	expiresRaw, ok := data["expires_in"]
	if !ok {
		expiresRaw = data["expires"]
	}
	expiresSecs, err := parseExpirySeconds(expiresRaw)
	if err != nil {
		return nil, &AuthError{Msg: "expiración del token inválida", Err: err}
	}

	tokens := &AuthTokens{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(time.Duration(expiresSecs) * time.Second),
		Raw:         data,
	}
	if tt, ok := data["token_type"].(string); ok && tt != "" {
		tokens.TokenType = tt
	}
	if rt, ok := data["refresh_token"].(string); ok {
		tokens.RefreshToken = rt
	}
	if sc, ok := data["scope"].(string); ok {
		tokens.Scope = sc
	}
	return tokens, nil
}

func parseExpirySeconds(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("sin campo expires_in ni expires")
	case float64:
		return int64(x), nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expiración %q no es numérica", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("tipo de expiración inesperado %T", v)
	}
}

// AuthClient obtiene tokens OAuth para un par de credenciales.
type AuthClient struct {
	transport Transport
	now       func() time.Time
}

// NewAuthClient crea el cliente de autenticación.
func NewAuthClient(transport Transport) *AuthClient {
	return &AuthClient{transport: transport, now: time.Now}
}

// BuildRequest valida configuración y arma la petición de token.
func (a *AuthClient) BuildRequest(authURL, clientID, clientSecret string) (*AuthRequest, error) {
	if authURL == "" || clientID == "" || clientSecret == "" {
		return nil, &AuthError{Msg: "configuración OAuth incompleta: se requieren api_auth_url, api_client_id y api_client_secret"}
	}
	return &AuthRequest{
		URL:     authURL,
		Payload: BuildAuthPayload(clientID, clientSecret),
	}, nil
}

// ObtainToken ejecuta el flujo client-credentials y devuelve los tokens.
func (a *AuthClient) ObtainToken(ctx context.Context, authURL, clientID, clientSecret string) (*AuthTokens, error) {
	req, err := a.BuildRequest(authURL, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	data, _, err := a.transport.DoJSON(ctx, http.MethodPost, req.URL, headers, req.Payload)
	if err != nil {
		return nil, &AuthError{Msg: "falló la petición de token", Err: err}
	}
	return TokensFromResponse(data, a.now())
}
