package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"floorplan/internal/common/middleware"
	"floorplan/internal/floorplan/geometry"
	"floorplan/internal/floorplan/models"
	"floorplan/internal/tables/repository"
	"floorplan/internal/tables/service"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Table Management Handler
// ============================================================

const BasePath = "/api/v1/restaurant/table-management"

type TableHandler struct {
	svc *service.TableService
}

func NewTableHandler(svc *service.TableService) *TableHandler {
	return &TableHandler{svc: svc}
}

// Register вешает маршруты управления столами на router.
// Статические пути регистрируются раньше /:id.
func (h *TableHandler) Register(router fiber.Router) {
	g := router.Group(BasePath)
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Post("/combine", h.Combine)
	g.Post("/split", h.Split)
	g.Post("/import", h.Import)
	g.Get("/export.svg", h.ExportSVG)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Update)
	g.Delete("/:id", h.Delete)
}

// List возвращает столы с фильтрами ?section= и ?status=.
func (h *TableHandler) List(c fiber.Ctx) error {
	filter := repository.Filter{
		Section: c.Query("section"),
		Status:  models.Status(c.Query("status")),
	}
	list, err := h.svc.List(c.Context(), middleware.OrgID(c), filter)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *TableHandler) Get(c fiber.Ctx) error {
	t, err := h.svc.Get(c.Context(), middleware.OrgID(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, t)
}

func (h *TableHandler) Create(c fiber.Ctx) error {
	var req models.Table
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	index := -1
	if raw := c.Query("index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fail(c, fmt.Errorf("%w: index must be a non-negative integer", service.ErrValidation))
		}
		index = n
	}
	t, err := h.svc.CreateAt(c.Context(), middleware.OrgID(c), req, index)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, t)
}

func (h *TableHandler) Update(c fiber.Ctx) error {
	var patch models.TablePatch
	if err := decode(c, &patch); err != nil {
		return fail(c, err)
	}
	t, err := h.svc.Update(c.Context(), middleware.OrgID(c), c.Params("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, t)
}

func (h *TableHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), middleware.OrgID(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// Combine объединяет смежные столы: { table_ids: [...] }.
func (h *TableHandler) Combine(c fiber.Ctx) error {
	var req models.CombineRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	res, err := h.svc.Combine(c.Context(), middleware.OrgID(c), req.TableIDs)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, res)
}

// Split снимает объединение: { group_id }.
func (h *TableHandler) Split(c fiber.Ctx) error {
	var req models.SplitRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	if err := h.svc.Split(c.Context(), middleware.OrgID(c), req.GroupID); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// Import принимает multipart поле file с SVG планом; ?replace=true заменяет текущие столы.
func (h *TableHandler) Import(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(models.Envelope{Message: "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(models.Envelope{Message: "failed to open file"})
	}
	defer file.Close()

	res, err := h.svc.Import(c.Context(), middleware.OrgID(c), file, c.Query("replace") == "true")
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, res)
}

// ExportSVG отдает план зала как SVG; ?width= и ?height= задают размер.
func (h *TableHandler) ExportSVG(c fiber.Ctx) error {
	width := queryInt(c, "width", 1200)
	height := queryInt(c, "height", 800)

	var buf bytes.Buffer
	if err := h.svc.ExportSVG(c.Context(), middleware.OrgID(c), &buf, width, height); err != nil {
		return fail(c, err)
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.Send(buf.Bytes())
}

// ============================================================
// Helpers
// ============================================================

func decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return fmt.Errorf("%w: empty body", service.ErrValidation)
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fmt.Errorf("%w: invalid json", service.ErrValidation)
	}
	return nil
}

func ok(c fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(models.Envelope{Success: true, Data: data})
}

// fail переводит ошибку сервиса в HTTP статус и конверт ответа.
func fail(c fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, geometry.ErrCombineTooFew),
		errors.Is(err, geometry.ErrNotAdjacent),
		errors.Is(err, geometry.ErrAlreadyCombined):
		status = http.StatusUnprocessableEntity
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorf("[TABLES] %s %s: %v", c.Method(), c.Path(), err)
		msg = "internal error"
	}
	return c.Status(status).JSON(models.Envelope{Message: msg})
}

func queryInt(c fiber.Ctx, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return def
}
