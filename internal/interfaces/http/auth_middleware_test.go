package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/complementos-api/internal/interfaces/http"
	"github.com/jhoicas/complementos-api/pkg/config"
	pkgjwt "github.com/jhoicas/complementos-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testSubject   = "erp-cliente"
	testIssuer    = "complementos-api-test"
	testExpMin    = 60
)

func tokenForScope(t *testing.T, scope string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testSubject, scope, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

func authEnv(t *testing.T) *testEnv {
	return newTestEnv(t, config.AuthConfig{Secret: testJWTSecret, Issuer: testIssuer})
}

func withAuth(req *http.Request, header string) *http.Request {
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}

func TestAuth_SinTokenRetorna401(t *testing.T) {
	env := authEnv(t)
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil))
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestAuth_TokenInvalidoRetorna401(t *testing.T) {
	env := authEnv(t)
	for _, header := range []string{"Bearer token.invalido.aqui", "Basic abc", "Bearer "} {
		resp := env.do(t, withAuth(httptest.NewRequest(http.MethodGet, "/invoices", nil), header))
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, header)
	}
}

func TestAuth_ScopeLecturaNoPuedeEscribir(t *testing.T) {
	env := authEnv(t)
	read := tokenForScope(t, apphttp.ScopeRead)

	resp := env.do(t, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil), read))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, withAuth(jsonRequest(http.MethodPost, "/api/v1/invoices", createBody()), read))
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestAuth_ScopeEscrituraPuedeTodo(t *testing.T) {
	env := authEnv(t)
	write := tokenForScope(t, apphttp.ScopeWrite)

	resp := env.do(t, withAuth(jsonRequest(http.MethodPost, "/api/v1/invoices", createBody()), write))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil), write))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_SinScopeRetorna401(t *testing.T) {
	env := authEnv(t)
	resp := env.do(t, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil), tokenForScope(t, "")))
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "MISSING_SCOPE")
}

func TestAuth_HealthEsPublico(t *testing.T) {
	env := authEnv(t)
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret, testIssuer), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"subject": apphttp.GetSubject(c), "scope": apphttp.GetScope(c)})
	})

	req := withAuth(httptest.NewRequest(http.MethodGet, "/me", nil), tokenForScope(t, apphttp.ScopeRead))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testSubject, body["subject"])
	assert.Equal(t, apphttp.ScopeRead, body["scope"])
}

func TestJWT_Errores(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, testSubject, apphttp.ScopeRead, testIssuer, -1)
	require.NoError(t, err)
	_, err = pkgjwt.Parse(testJWTSecret, testIssuer, expired)
	assert.Error(t, err, "token expirado")

	tok, err := pkgjwt.Generate(testJWTSecret, testSubject, apphttp.ScopeRead, testIssuer, testExpMin)
	require.NoError(t, err)
	_, err = pkgjwt.Parse("otro-secret", testIssuer, tok)
	assert.Error(t, err, "secret incorrecto")
	_, err = pkgjwt.Parse(testJWTSecret, "otro-emisor", tok)
	assert.Error(t, err, "emisor distinto")

	_, err = pkgjwt.Generate("", testSubject, apphttp.ScopeRead, testIssuer, testExpMin)
	assert.Error(t, err)
}
