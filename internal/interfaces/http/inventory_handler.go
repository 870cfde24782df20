package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/application/inventory"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del ledger de movimientos (protegido).
type InventoryHandler struct {
	ledger *inventory.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  ENTRADA suma y SALIDA resta; el usuario del movimiento es el del token.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, quantity, reason"
// @Success      201   {object}  dto.MovementCreatedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validateBody(in); err != nil {
		return writeError(c, err)
	}
	id, err := h.ledger.RecordMovement(c.Context(), toMovementInput(in, GetUsername(c)))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementCreatedResponse{ID: id})
}

// RegisterBatch godoc
// @Summary      Registrar lote de movimientos
// @Description  Todo o nada: si un movimiento falla no se aplica ninguno.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterBatchRequest  true  "movements"
// @Success      201   {object}  dto.BatchCreatedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/batch [post]
func (h *InventoryHandler) RegisterBatch(c *fiber.Ctx) error {
	var in dto.RegisterBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validateBody(in); err != nil {
		return writeError(c, err)
	}
	user := GetUsername(c)
	inputs := make([]inventory.MovementInput, 0, len(in.Movements))
	for _, m := range in.Movements {
		inputs = append(inputs, toMovementInput(m, user))
	}
	n, err := h.ledger.RecordMovementsBatch(c.Context(), inputs)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BatchCreatedResponse{Applied: n})
}

// ListMovements godoc
// @Summary      Consultar movimientos
// @Description  Un único filtro por petición, en este orden de prioridad: product_id, type, from+to, limit.
// @Description  Sin filtros devuelve el ledger completo. Orden: más reciente primero.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  int     false  "ID de producto"
// @Param        type        query  string  false  "ENTRADA o SALIDA"
// @Param        from        query  string  false  "Inicio (RFC3339 o AAAA-MM-DD)"
// @Param        to          query  string  false  "Fin inclusivo (RFC3339 o AAAA-MM-DD)"
// @Param        limit       query  int     false  "Últimos N movimientos"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var (
		list []*entity.StockMovement
		err  error
	)
	ctx := c.Context()
	switch {
	case c.Query("product_id") != "":
		id, convErr := strconv.ParseInt(c.Query("product_id"), 10, 64)
		if convErr != nil || id <= 0 {
			return badParam(c, "product_id debe ser un entero positivo")
		}
		list, err = h.ledger.ListByProduct(ctx, id)
	case c.Query("type") != "":
		list, err = h.ledger.ListByType(ctx, c.Query("type"))
	case c.Query("from") != "" || c.Query("to") != "":
		from, okFrom := parseDateParam(c.Query("from"), false)
		to, okTo := parseDateParam(c.Query("to"), true)
		if !okFrom || !okTo {
			return badParam(c, "from y to son requeridos (RFC3339 o AAAA-MM-DD)")
		}
		list, err = h.ledger.ListByDateRange(ctx, from, to)
	case c.Query("limit") != "":
		n, convErr := strconv.Atoi(c.Query("limit"))
		if convErr != nil {
			return badParam(c, "limit debe ser un entero")
		}
		list, err = h.ledger.ListRecent(ctx, n)
	default:
		list, err = h.ledger.ListAll(ctx)
	}
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementListResponse{Items: make([]dto.MovementResponse, 0, len(list)), Total: len(list)}
	for _, m := range list {
		out.Items = append(out.Items, toMovementResponse(m))
	}
	return c.JSON(out)
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badParam(c, "id inválido")
	}
	m, err := h.ledger.GetByID(c.Context(), int64(id))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementResponse(m))
}

// Summary godoc
// @Summary      Resumen del ledger
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MovementSummaryResponse
// @Router       /api/movements/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	s, err := h.ledger.Summary(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementSummaryResponse{Total: s.Total, Entries: s.Entries, Exits: s.Exits})
}

func toMovementInput(in dto.RegisterMovementRequest, user string) inventory.MovementInput {
	return inventory.MovementInput{
		ProductID: in.ProductID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		User:      user,
	}
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reason:      m.Reason,
		Date:        m.Date,
		User:        m.User,
	}
}

// parseDateParam acepta RFC3339 o fecha sola; con endOfDay la fecha sola cubre el día completo.
func parseDateParam(s string, endOfDay bool) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
