package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock/internal/application/auth"
	"github.com/jhoicas/inventario-stock/internal/application/backup"
	"github.com/jhoicas/inventario-stock/internal/application/catalog"
	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/application/importer"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/inventario-stock/internal/interfaces/http"
	"github.com/jhoicas/inventario-stock/internal/testutil/memstore"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entorno: router completo sobre el almacén en memoria
// ──────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	app   *fiber.App
	store *memstore.Store
	token string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	store.SeedProduct(entity.Product{ID: 1, Name: "Tornillo", Category: "General", Price: decimal.RequireFromString("0.25"), Stock: 10})
	store.SeedProduct(entity.Product{ID: 2, Name: "Tuerca", Category: "General", Price: decimal.RequireFromString("0.10"), Stock: 3})

	ledger := inventory.NewLedgerUseCase(store, store.Movements(), store.Products(), "", nil)
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})
	_, err := authUC.CreateUser(context.Background(), dto.CreateUserRequest{Username: testUsername, Password: "secreta123", Name: "Ana"})
	require.NoError(t, err)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:       authUC,
		Ledger:       ledger,
		Importer:     importer.New(ledger, importer.Options{LotSize: 100}, nil),
		ImportReport: pdf.NewImportReportGenerator(),
		Loader:       catalog.NewLoader(store, store.Categories(), ledger, nil, "", nil),
		Catalog:      catalog.NewService(store.Products(), store.Categories()),
		Backup:       backup.NewUseCase(store, nil),
		BackupDir:    t.TempDir(),
		JWTSecret:    testJWTSecret,
	})
	return &testEnv{app: app, store: store, token: bearer(t, testUsername)}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", e.token)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path string, v any) *http.Response {
	t.Helper()
	if v == nil {
		return e.do(t, method, path, nil, "")
	}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return e.do(t, method, path, bytes.NewReader(data), fiber.MIMEApplicationJSON)
}

func (e *testEnv) upload(t *testing.T, path, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return e.do(t, http.MethodPost, path, &buf, mw.FormDataContentType())
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_TokenUsableEnRutasProtegidas(t *testing.T) {
	env := newEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{Username: testUsername, Password: "secreta123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, testUsername, login.User.Username)

	env.token = "Bearer " + login.Token
	resp = env.doJSON(t, http.MethodGet, "/api/movements/summary", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	env := newEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{Username: testUsername, Password: "otra"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRutasProtegidas_SinToken(t *testing.T) {
	env := newEnv(t)
	env.token = ""

	resp := env.doJSON(t, http.MethodGet, "/api/movements", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", decode[dto.ErrorResponse](t, resp).Code)
}

func TestCreateUser_Duplicado(t *testing.T) {
	env := newEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/users", dto.CreateUserRequest{Username: "luis", Password: "secreta123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "luis", decode[dto.UserResponse](t, resp).Name)

	resp = env.doJSON(t, http.MethodPost, "/api/users", dto.CreateUserRequest{Username: "luis", Password: "secreta123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", decode[dto.ErrorResponse](t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_UsuarioDelToken(t *testing.T) {
	env := newEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/movements",
		dto.RegisterMovementRequest{ProductID: 1, Type: "salida", Quantity: 4, Reason: "venta"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.MovementCreatedResponse](t, resp)
	assert.Equal(t, 6, env.store.Stock(1))

	resp = env.doJSON(t, http.MethodGet, "/api/movements/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mov := decode[dto.MovementResponse](t, resp)
	assert.Equal(t, entity.MovementExit, mov.Type)
	assert.Equal(t, 10, mov.StockBefore)
	assert.Equal(t, 6, mov.StockAfter)
	assert.Equal(t, testUsername, mov.User)
}

func TestRegisterMovement_StockInsuficiente(t *testing.T) {
	env := newEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/movements",
		dto.RegisterMovementRequest{ProductID: 1, Type: "SALIDA", Quantity: 15})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
	assert.Equal(t, "Stock insuficiente. Disponible: 10, Solicitado: 15", errResp.Message)
	assert.Equal(t, 10, env.store.Stock(1))
	assert.Zero(t, env.store.MovementCount())
}

func TestRegisterMovement_ErroresDeEntrada(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodPost, "/api/movements", strings.NewReader("{no json"), fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decode[dto.ErrorResponse](t, resp).Code)

	resp = env.doJSON(t, http.MethodPost, "/api/movements", dto.RegisterMovementRequest{Type: "ENTRADA", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", errResp.Code)
	assert.Equal(t, []string{"RegisterMovementRequest.ProductID: required"}, errResp.Details)

	resp = env.doJSON(t, http.MethodPost, "/api/movements", dto.RegisterMovementRequest{ProductID: 1, Type: "AJUSTE", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/api/movements", dto.RegisterMovementRequest{ProductID: 99, Type: "ENTRADA", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Producto no existe con ID: 99", decode[dto.ErrorResponse](t, resp).Message)
}

func TestRegisterBatch_TodoONada(t *testing.T) {
	env := newEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/movements/batch", dto.RegisterBatchRequest{Movements: []dto.RegisterMovementRequest{
		{ProductID: 1, Type: "ENTRADA", Quantity: 5},
		{ProductID: 2, Type: "SALIDA", Quantity: 4},
	}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, 10, env.store.Stock(1))
	assert.Zero(t, env.store.MovementCount())

	resp = env.doJSON(t, http.MethodPost, "/api/movements/batch", dto.RegisterBatchRequest{Movements: []dto.RegisterMovementRequest{
		{ProductID: 1, Type: "ENTRADA", Quantity: 5},
		{ProductID: 2, Type: "SALIDA", Quantity: 3},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2, decode[dto.BatchCreatedResponse](t, resp).Applied)
	assert.Equal(t, 15, env.store.Stock(1))
	assert.Equal(t, 0, env.store.Stock(2))
}

func TestListMovements_Filtros(t *testing.T) {
	env := newEnv(t)
	for _, m := range []dto.RegisterMovementRequest{
		{ProductID: 1, Type: "ENTRADA", Quantity: 1},
		{ProductID: 2, Type: "SALIDA", Quantity: 1},
		{ProductID: 1, Type: "SALIDA", Quantity: 2},
	} {
		require.Equal(t, http.StatusCreated, env.doJSON(t, http.MethodPost, "/api/movements", m).StatusCode)
	}

	all := decode[dto.MovementListResponse](t, env.doJSON(t, http.MethodGet, "/api/movements", nil))
	require.Equal(t, 3, all.Total)
	assert.Equal(t, int64(3), all.Items[0].ID, "más reciente primero")

	byProduct := decode[dto.MovementListResponse](t, env.doJSON(t, http.MethodGet, "/api/movements?product_id=1", nil))
	assert.Equal(t, 2, byProduct.Total)

	byType := decode[dto.MovementListResponse](t, env.doJSON(t, http.MethodGet, "/api/movements?type=salida", nil))
	assert.Equal(t, 2, byType.Total)

	recent := decode[dto.MovementListResponse](t, env.doJSON(t, http.MethodGet, "/api/movements?limit=1", nil))
	require.Len(t, recent.Items, 1)
	assert.Equal(t, int64(3), recent.Items[0].ID)

	byDate := decode[dto.MovementListResponse](t, env.doJSON(t, http.MethodGet,
		"/api/movements?from=2024-01-01T00:00:00Z&to=2024-01-02T00:00:00Z", nil))
	assert.Equal(t, 3, byDate.Total)

	summary := decode[dto.MovementSummaryResponse](t, env.doJSON(t, http.MethodGet, "/api/movements/summary", nil))
	assert.Equal(t, dto.MovementSummaryResponse{Total: 3, Entries: 1, Exits: 2}, summary)

	resp := env.doJSON(t, http.MethodGet, "/api/movements?from=ayer", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_PARAM", decode[dto.ErrorResponse](t, resp).Code)

	resp = env.doJSON(t, http.MethodGet, "/api/movements?type=AJUSTE", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/api/movements/77", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Importación y catálogo
// ──────────────────────────────────────────────────────────────────────────────

const movementsCSV = "id_producto,tipo_movimiento,cantidad,motivo,usuario\n" +
	"1,ENTRADA,5,Compra,luis\n" +
	"1,SALIDA,2,Venta,luis\n"

func TestImportMovements_JSON(t *testing.T) {
	env := newEnv(t)

	resp := env.upload(t, "/api/imports/movements", "movimientos.csv", []byte(movementsCSV))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[dto.ImportResult](t, resp)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.TotalLines)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 13, env.store.Stock(1))
}

func TestImportMovements_InformePDF(t *testing.T) {
	env := newEnv(t)

	resp := env.upload(t, "/api/imports/movements?format=pdf", "movimientos.csv", []byte(movementsCSV))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestImportMovements_OrigenIlegible(t *testing.T) {
	env := newEnv(t)

	resp := env.upload(t, "/api/imports/movements", "movimientos.csv", []byte("producto,cantidad\n1,2\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, decode[dto.ImportResult](t, resp).Success)
	assert.Equal(t, 10, env.store.Stock(1))

	resp = env.do(t, http.MethodPost, "/api/imports/movements", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_PARAM", decode[dto.ErrorResponse](t, resp).Code)
}

func TestCatalog_CargaYConsulta(t *testing.T) {
	env := newEnv(t)

	resp := env.upload(t, "/api/catalog/categories", "categorias.csv", []byte("nombre;descripcion\nElectrónica;Aparatos\nGeneral;ya existe\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cats := decode[dto.LoadResult](t, resp)
	assert.Equal(t, 1, cats.Loaded)
	assert.Equal(t, 1, cats.Skipped)

	resp = env.upload(t, "/api/catalog/products", "productos.csv", []byte("id_producto;nombre;categoria;precio;stock\n10;Portátil;Electrónica;899.99;2\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.LoadResult](t, resp).Loaded)
	assert.Equal(t, 2, env.store.Stock(10))

	list := decode[dto.ProductListResponse](t, env.doJSON(t, http.MethodGet, "/api/products?limit=2", nil))
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 3, list.Page.Total)

	product := decode[dto.ProductResponse](t, env.doJSON(t, http.MethodGet, "/api/products/10", nil))
	assert.Equal(t, "Electronica", product.Category)
	assert.True(t, decimal.RequireFromString("1799.98").Equal(product.TotalValue))

	low := decode[[]dto.ProductResponse](t, env.doJSON(t, http.MethodGet, "/api/products/low-stock?threshold=5", nil))
	require.Len(t, low, 2)
	assert.Equal(t, int64(10), low[0].ID, "menor stock primero")

	resp = env.doJSON(t, http.MethodGet, "/api/products/500", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/api/products?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteCategory(t *testing.T) {
	env := newEnv(t)
	empty := env.store.SeedCategory("Vacía", "")

	resp := env.doJSON(t, http.MethodDelete, "/api/categories/1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decode[dto.ErrorResponse](t, resp).Code)

	resp = env.doJSON(t, http.MethodDelete, "/api/categories/"+itoa(empty), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cats := decode[[]dto.CategoryResponse](t, env.doJSON(t, http.MethodGet, "/api/categories", nil))
	require.Len(t, cats, 1)
	assert.Equal(t, "General", cats[0].Name)
}

// ──────────────────────────────────────────────────────────────────────────────
// Backup XML
// ──────────────────────────────────────────────────────────────────────────────

func TestBackup_DescargaYRestauracion(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusCreated, env.doJSON(t, http.MethodPost, "/api/movements",
		dto.RegisterMovementRequest{ProductID: 1, Type: "ENTRADA", Quantity: 2}).StatusCode)

	resp := env.doJSON(t, http.MethodGet, "/api/backup/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "inventario_")
	doc, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)))

	before := decode[map[string]string](t, env.doJSON(t, http.MethodGet, "/api/backup/fingerprint", nil))["fingerprint"]

	// cambios posteriores que la restauración debe deshacer
	require.Equal(t, http.StatusCreated, env.doJSON(t, http.MethodPost, "/api/movements",
		dto.RegisterMovementRequest{ProductID: 1, Type: "SALIDA", Quantity: 12}).StatusCode)
	require.Equal(t, 0, env.store.Stock(1))

	resp = env.upload(t, "/api/backup/validate", "backup.xml", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.ValidationReport](t, resp).Valid)

	resp = env.upload(t, "/api/backup/restore?clear=true", "backup.xml", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[dto.RestoreResult](t, resp)
	assert.True(t, res.Cleared)
	assert.Equal(t, 2, res.Products.Inserted)
	assert.Equal(t, 1, res.Movements.Inserted)
	assert.Equal(t, 12, env.store.Stock(1))

	after := decode[map[string]string](t, env.doJSON(t, http.MethodGet, "/api/backup/fingerprint", nil))["fingerprint"]
	assert.Equal(t, before, after)
}

func TestBackup_DocumentoInvalido(t *testing.T) {
	env := newEnv(t)
	doc := []byte(`<?xml version="1.0"?><inventario version="2.0"></inventario>`)

	resp := env.upload(t, "/api/backup/validate", "backup.xml", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[dto.ValidationReport](t, resp)
	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.Problems)

	resp = env.upload(t, "/api/backup/restore", "backup.xml", doc)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_STRUCTURE", decode[dto.ErrorResponse](t, resp).Code)
	assert.Equal(t, 10, env.store.Stock(1))
}

func TestBackup_ExportarAlDirectorio(t *testing.T) {
	env := newEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/backup/export", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[dto.ExportResult](t, resp)
	assert.Contains(t, res.Path, "inventario_")
	assert.Equal(t, 2, res.Products)
	assert.Positive(t, res.Bytes)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
