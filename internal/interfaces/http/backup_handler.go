package http

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/inventario-stock/internal/application/backup"
	"github.com/jhoicas/inventario-stock/internal/application/dto"
)

// BackupHandler exportación, validación y restauración del backup XML (protegido).
type BackupHandler struct {
	uc         *backup.UseCase
	dir        string
	schemaPath string
	exports    singleflight.Group
}

// NewBackupHandler construye el handler. dir es el destino de POST /export; schemaPath vacío usa el XSD embebido.
func NewBackupHandler(uc *backup.UseCase, dir, schemaPath string) *BackupHandler {
	return &BackupHandler{uc: uc, dir: dir, schemaPath: schemaPath}
}

type exportPayload struct {
	data   []byte
	result *dto.ExportResult
}

// Download godoc
// @Summary      Descargar backup XML
// @Description  Peticiones concurrentes comparten una única lectura del inventario.
// @Tags         backup
// @Security     Bearer
// @Produce      application/xml
// @Success      200  {file}    file
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/backup/export [get]
func (h *BackupHandler) Download(c *fiber.Ctx) error {
	v, err, _ := h.exports.Do("export", func() (any, error) {
		var buf bytes.Buffer
		res, err := h.uc.ExportTo(c.Context(), &buf)
		if err != nil {
			return nil, err
		}
		return exportPayload{data: buf.Bytes(), result: res}, nil
	})
	if err != nil {
		return writeError(c, err)
	}
	p := v.(exportPayload)
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, backup.FileName(p.result.ExportedAt)))
	return c.Send(p.data)
}

// Export godoc
// @Summary      Exportar backup XML al directorio del servidor
// @Tags         backup
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.ExportResult
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/backup/export [post]
func (h *BackupHandler) Export(c *fiber.Ctx) error {
	path := filepath.Join(h.dir, backup.FileName(time.Now()))
	res, err := h.uc.Export(c.Context(), path)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Validate godoc
// @Summary      Validar backup XML contra el XSD
// @Tags         backup
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Documento XML"
// @Success      200  {object}  dto.ValidationReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/backup/validate [post]
func (h *BackupHandler) Validate(c *fiber.Ctx) error {
	_, data, err := formFile(c)
	if err != nil {
		return badParam(c, err.Error())
	}
	report, err := h.uc.ValidateBytes(c.Context(), data, h.schemaPath)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// Restore godoc
// @Summary      Restaurar backup XML
// @Description  Valida el documento y lo aplica en una única transacción (upsert por ID).
// @Description  Con clear=true vacía antes movimientos, productos y categorías.
// @Tags         backup
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file   formData  file  true   "Documento XML"
// @Param        clear  query     bool  false  "Vaciar antes de restaurar"
// @Success      200  {object}  dto.RestoreResult
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/backup/restore [post]
func (h *BackupHandler) Restore(c *fiber.Ctx) error {
	_, data, err := formFile(c)
	if err != nil {
		return badParam(c, err.Error())
	}
	res, err := h.uc.RestoreBytes(c.Context(), data, h.schemaPath, c.QueryBool("clear"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Fingerprint godoc
// @Summary      Huella del inventario actual
// @Description  SHA-256 del backup canónico sin fecha de exportación; coincide con la de un archivo exportado sin cambios posteriores.
// @Tags         backup
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/backup/fingerprint [get]
func (h *BackupHandler) Fingerprint(c *fiber.Ctx) error {
	fp, err := h.uc.CurrentFingerprint(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"fingerprint": fp})
}

