package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	apphttp "github.com/jhoicas/inventario-stock/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-stock/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUsername  = "ana"
	testIssuer    = "inventario-test"
	testExpMin    = 60
)

// buildMeApp aplicación mínima: AuthMiddleware y un handler que devuelve el usuario de locals.
func buildMeApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"username": apphttp.GetUsername(c)})
	})
	return app
}

func bearer(t *testing.T, username string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, username, "Ana", testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

func getMe(t *testing.T, app *fiber.App, authHeader string) (int, dto.ErrorResponse, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return resp.StatusCode, dto.ErrorResponse{Code: raw["code"], Message: raw["message"]}, raw
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_TokenValidoDejaUsuarioEnLocals(t *testing.T) {
	status, _, body := getMe(t, buildMeApp(), bearer(t, testUsername))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, testUsername, body["username"])
}

func TestAuthMiddleware_SinHeader(t *testing.T) {
	status, errResp, _ := getMe(t, buildMeApp(), "")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_TOKEN", errResp.Code)
	assert.Equal(t, "Authorization header requerido", errResp.Message)
}

func TestAuthMiddleware_FormatoIncorrecto(t *testing.T) {
	status, errResp, _ := getMe(t, buildMeApp(), "Token abc")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", errResp.Code)
	assert.Equal(t, "formato: Bearer <token>", errResp.Message)
}

func TestAuthMiddleware_TokenInvalido(t *testing.T) {
	status, errResp, _ := getMe(t, buildMeApp(), "Bearer token.invalido.aqui")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", errResp.Code)
}

func TestAuthMiddleware_OtroSecreto(t *testing.T) {
	tok, err := pkgjwt.Generate("otro-secreto", testUsername, "", testIssuer, testExpMin)
	require.NoError(t, err)

	status, errResp, _ := getMe(t, buildMeApp(), "Bearer "+tok)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token inválido o expirado", errResp.Message)
}

func TestAuthMiddleware_TokenExpirado(t *testing.T) {
	claims := pkgjwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   testUsername,
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	status, errResp, _ := getMe(t, buildMeApp(), "Bearer "+tok)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", errResp.Code)
}
