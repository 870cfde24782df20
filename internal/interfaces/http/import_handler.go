package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-stock/internal/application/catalog"
	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/application/importer"
)

// ImportHandler cargas masivas por archivo: movimientos (CSV/XLSX) y catálogo (CSV).
type ImportHandler struct {
	importer *importer.Importer
	report   importer.ReportRenderer
	loader   *catalog.Loader
}

// NewImportHandler construye el handler. report puede ser nil (sin salida PDF).
func NewImportHandler(im *importer.Importer, report importer.ReportRenderer, loader *catalog.Loader) *ImportHandler {
	return &ImportHandler{importer: im, report: report, loader: loader}
}

// ImportMovements godoc
// @Summary      Importar movimientos desde archivo
// @Description  CSV (coma) o XLSX con cabecera id_producto, tipo_movimiento, cantidad y opcionales motivo, usuario.
// @Description  Se aplica en lotes todo-o-nada; un lote fallido no detiene los siguientes.
// @Description  Con format=pdf la respuesta es el informe PDF de la ejecución.
// @Tags         imports
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Produce      application/pdf
// @Param        file    formData  file    true   "Archivo .csv o .xlsx"
// @Param        format  query     string  false  "json (defecto) o pdf"
// @Success      200  {object}  dto.ImportResult
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ImportResult
// @Router       /api/imports/movements [post]
func (h *ImportHandler) ImportMovements(c *fiber.Ctx) error {
	name, data, err := formFile(c)
	if err != nil {
		return badParam(c, err.Error())
	}
	var res *dto.ImportResult
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		res = h.importer.ImportXLSX(c.Context(), bytes.NewReader(data))
	} else {
		res = h.importer.ImportCSV(c.Context(), bytes.NewReader(data))
	}

	status := fiber.StatusOK
	if !res.Success {
		status = fiber.StatusUnprocessableEntity
	}
	if c.Query("format") == "pdf" && h.report != nil {
		var buf bytes.Buffer
		if err := h.report.RenderImportReport(res, &buf); err != nil {
			return writeError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="importacion_%s.pdf"`, res.RunID))
		return c.Status(status).Send(buf.Bytes())
	}
	return c.Status(status).JSON(res)
}

// LoadCategories godoc
// @Summary      Carga masiva de categorías
// @Description  CSV separado por punto y coma con cabecera nombre;descripcion. Las existentes se omiten.
// @Tags         catalog
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Archivo .csv"
// @Success      200  {object}  dto.LoadResult
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/catalog/categories [post]
func (h *ImportHandler) LoadCategories(c *fiber.Ctx) error {
	return h.load(c, h.loader.LoadCategoriesCSV)
}

// LoadProducts godoc
// @Summary      Carga masiva de productos
// @Description  CSV separado por punto y coma. El stock inicial se registra como ENTRADA en el ledger.
// @Tags         catalog
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Archivo .csv"
// @Success      200  {object}  dto.LoadResult
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/catalog/products [post]
func (h *ImportHandler) LoadProducts(c *fiber.Ctx) error {
	return h.load(c, h.loader.LoadProductsCSV)
}

func (h *ImportHandler) load(c *fiber.Ctx, fn func(context.Context, io.Reader) (*dto.LoadResult, error)) error {
	_, data, err := formFile(c)
	if err != nil {
		return badParam(c, err.Error())
	}
	res, err := fn(c.Context(), bytes.NewReader(data))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// formFile lee completo el campo multipart "file".
func formFile(c *fiber.Ctx) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("campo file requerido")
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("abrir archivo: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("leer archivo: %w", err)
	}
	return fh.Filename, data, nil
}
