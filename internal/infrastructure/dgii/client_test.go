package dgii_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ecf-api/internal/infrastructure/dgii"
)

const (
	testAuthURL   = "https://dgii.test/auth"
	testSubmitURL = "https://dgii.test/recepcion"
)

var testCreds = dgii.Credentials{
	AuthURL:      testAuthURL,
	ClientID:     "cid",
	ClientSecret: "csecret",
}

func authResponse(t *testing.T, token string, expiresIn int) map[string]any {
	t.Helper()
	return jsonRoundTrip(t, map[string]any{
		"access_token": token,
		"expires_in":   expiresIn,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Client
// ──────────────────────────────────────────────────────────────────────────────

// Primer envío: autentica y manda el Authorization con el token emitido.
func TestClient_PrimerEnvioAutentica(t *testing.T) {
	transport := newStubTransport()
	transport.respond(testAuthURL, authResponse(t, "tok-1", 3600))
	transport.respond(testSubmitURL, map[string]any{"trackId": "T-1"})

	client := dgii.NewClient(transport, dgii.NewAuthClient(transport), 0)

	resp, err := client.PostJSON(context.Background(), testSubmitURL, map[string]string{"xml": "<ECF/>"}, testCreds, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "T-1", resp.Data["trackId"])

	authCalls := transport.callsTo(testAuthURL)
	require.Len(t, authCalls, 1)

	submitCalls := transport.callsTo(testSubmitURL)
	require.Len(t, submitCalls, 1)
	assert.Equal(t, "Bearer tok-1", submitCalls[0].Headers["Authorization"])
	assert.Equal(t, "application/json", submitCalls[0].Headers["Content-Type"])
}

// Token vigente: dos envíos, una sola autenticación.
func TestClient_ReusaTokenVigente(t *testing.T) {
	transport := newStubTransport()
	transport.respond(testAuthURL, authResponse(t, "tok-1", 3600))
	transport.respond(testSubmitURL, map[string]any{"ok": true})
	transport.respond(testSubmitURL, map[string]any{"ok": true})

	client := dgii.NewClient(transport, dgii.NewAuthClient(transport), 0)

	_, err := client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, nil)
	require.NoError(t, err)
	_, err = client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, nil)
	require.NoError(t, err)

	assert.Len(t, transport.callsTo(testAuthURL), 1, "el token vigente se reutiliza")
	assert.Len(t, transport.callsTo(testSubmitURL), 2)
}

// Token dentro del margen de expiración: se renueva antes del siguiente envío.
func TestClient_RenuevaTokenDentroDelMargen(t *testing.T) {
	transport := newStubTransport()
	// expires_in 10s < margen 30s: vencido desde el punto de vista del cliente.
	transport.respond(testAuthURL, authResponse(t, "tok-1", 10))
	transport.respond(testAuthURL, authResponse(t, "tok-2", 3600))
	transport.respond(testSubmitURL, map[string]any{"ok": true})
	transport.respond(testSubmitURL, map[string]any{"ok": true})

	client := dgii.NewClient(transport, dgii.NewAuthClient(transport), 30*time.Second)

	_, err := client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, nil)
	require.NoError(t, err)
	_, err = client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, nil)
	require.NoError(t, err)

	assert.Len(t, transport.callsTo(testAuthURL), 2, "el token vencido fuerza reautenticación")

	submitCalls := transport.callsTo(testSubmitURL)
	require.Len(t, submitCalls, 2)
	assert.Equal(t, "Bearer tok-1", submitCalls[0].Headers["Authorization"])
	assert.Equal(t, "Bearer tok-2", submitCalls[1].Headers["Authorization"])
}

// InvalidateToken descarta el token cacheado aunque esté vigente.
func TestClient_InvalidateToken(t *testing.T) {
	transport := newStubTransport()
	transport.respond(testAuthURL, authResponse(t, "tok-1", 3600))
	transport.respond(testAuthURL, authResponse(t, "tok-2", 3600))
	transport.respond(testSubmitURL, map[string]any{"ok": true})
	transport.respond(testSubmitURL, map[string]any{"ok": true})

	client := dgii.NewClient(transport, dgii.NewAuthClient(transport), 0)

	_, err := client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, nil)
	require.NoError(t, err)

	client.InvalidateToken()

	_, err = client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, nil)
	require.NoError(t, err)
	assert.Len(t, transport.callsTo(testAuthURL), 2)
}

// Fallo de autenticación: ClientError que envuelve el AuthError, sin envío.
func TestClient_FalloDeAutenticacion(t *testing.T) {
	transport := newStubTransport()
	transport.fail(testAuthURL, fmt.Errorf("credenciales rechazadas"))

	client := dgii.NewClient(transport, dgii.NewAuthClient(transport), 0)

	_, err := client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, nil)
	var clientErr *dgii.ClientError
	require.ErrorAs(t, err, &clientErr)
	var authErr *dgii.AuthError
	assert.ErrorAs(t, err, &authErr, "la causa de autenticación debe seguir accesible")
	assert.Empty(t, transport.callsTo(testSubmitURL), "sin token no hay envío")
}

// Fallo del transporte en el envío: ClientError; el token queda cacheado.
func TestClient_FalloDeTransporte(t *testing.T) {
	transport := newStubTransport()
	transport.respond(testAuthURL, authResponse(t, "tok-1", 3600))
	transport.fail(testSubmitURL, fmt.Errorf("timeout"))

	client := dgii.NewClient(transport, dgii.NewAuthClient(transport), 0)

	_, err := client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, nil)
	var clientErr *dgii.ClientError
	assert.ErrorAs(t, err, &clientErr)
}

// Los headers extra se agregan sin pisar el Authorization.
func TestClient_HeadersExtra(t *testing.T) {
	transport := newStubTransport()
	transport.respond(testAuthURL, authResponse(t, "tok-1", 3600))
	transport.respond(testSubmitURL, map[string]any{"ok": true})

	client := dgii.NewClient(transport, dgii.NewAuthClient(transport), 0)

	_, err := client.PostJSON(context.Background(), testSubmitURL, nil, testCreds, map[string]string{
		"X-Correlation-Id": "abc-123",
	})
	require.NoError(t, err)

	calls := transport.callsTo(testSubmitURL)
	require.Len(t, calls, 1)
	assert.Equal(t, "abc-123", calls[0].Headers["X-Correlation-Id"])
	assert.Equal(t, "Bearer tok-1", calls[0].Headers["Authorization"])
}
