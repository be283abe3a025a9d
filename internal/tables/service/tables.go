package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"floorplan/internal/floorplan/geometry"
	"floorplan/internal/floorplan/importer"
	"floorplan/internal/floorplan/models"
	"floorplan/internal/floorplan/render"
	"floorplan/internal/tables/repository"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
)

// ============================================================
// Table Service
// ============================================================

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = repository.ErrNotFound
)

type TableService struct {
	repo      *repository.Repository
	threshold float64
}

func NewTableService(repo *repository.Repository, adjacencyThreshold float64) *TableService {
	if adjacencyThreshold <= 0 {
		adjacencyThreshold = geometry.DefaultAdjacencyThreshold
	}
	return &TableService{repo: repo, threshold: adjacencyThreshold}
}

// List возвращает столы и сводку по ним.
func (s *TableService) List(ctx context.Context, orgID string, f repository.Filter) (*models.TableList, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	tables, err := s.repo.List(ctx, orgID, f)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return &models.TableList{Tables: tables, Stats: models.ComputeStats(tables)}, nil
}

func (s *TableService) Get(ctx context.Context, orgID, id string) (*models.Table, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

// Create создает стол поверх остальных. Нулевые поля заполняются значениями по умолчанию для формы.
func (s *TableService) Create(ctx context.Context, orgID string, t models.Table) (*models.Table, error) {
	return s.CreateAt(ctx, orgID, t, -1)
}

// CreateAt создает стол на позиции index в порядке отрисовки; index < 0 кладет его наверх.
func (s *TableService) CreateAt(ctx context.Context, orgID string, t models.Table, index int) (*models.Table, error) {
	if t.Shape == "" {
		t.Shape = models.ShapeSquare
	}
	if !t.Shape.Valid() {
		return nil, fmt.Errorf("%w: unknown shape %q", ErrValidation, t.Shape)
	}
	if t.Width == 0 && t.Height == 0 {
		t.Width, t.Height = t.Shape.DefaultSize()
	}
	if t.Capacity == 0 {
		t.Capacity = t.Shape.DefaultCapacity()
	}
	if t.Status == "" {
		t.Status = models.StatusAvailable
	}
	if t.TableNumber == "" {
		number, err := s.nextNumber(ctx, orgID)
		if err != nil {
			return nil, err
		}
		t.TableNumber = number
	}
	t.Rotation = geometry.NormalizeRotation(t.Rotation)
	t.CombinedGroup = ""

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	created, err := s.repo.CreateAt(ctx, orgID, t, index)
	if err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	log.Infof("[TABLES] Created table %s (%s) org=%s", created.TableNumber, created.ID, orgID)
	return created, nil
}

// Update применяет частичное обновление. Поворот нормализуется, размер должен быть положительным.
func (s *TableService) Update(ctx context.Context, orgID, id string, patch models.TablePatch) (*models.Table, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: empty update", ErrValidation)
	}
	if (patch.Width != nil && !(*patch.Width > 0)) || (patch.Height != nil && !(*patch.Height > 0)) {
		return nil, fmt.Errorf("%w: width and height must be positive", ErrValidation)
	}

	current, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	next := *current
	patch.Apply(&next)
	next.Rotation = geometry.NormalizeRotation(next.Rotation)
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	updated, err := s.repo.Update(ctx, orgID, next)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TableService) Delete(ctx context.Context, orgID, id string) error {
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	log.Infof("[TABLES] Deleted table %s org=%s", id, orgID)
	return nil
}

// ============================================================
// Combine / Split
// ============================================================

// Combine объединяет смежные столы в группу.
func (s *TableService) Combine(ctx context.Context, orgID string, ids []string) (*models.CombineResult, error) {
	seen := make(map[string]bool, len(ids))
	tables := make([]models.Table, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate table id %s", ErrValidation, id)
		}
		seen[id] = true

		t, err := s.repo.GetByID(ctx, orgID, id)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", id, err)
		}
		tables = append(tables, *t)
	}

	if err := geometry.CheckCombine(tables, s.threshold); err != nil {
		return nil, err
	}

	group := uuid.NewString()
	if err := s.repo.SetGroup(ctx, orgID, ids, group); err != nil {
		return nil, fmt.Errorf("combine: %w", err)
	}
	for i := range tables {
		tables[i].CombinedGroup = group
	}

	log.Infof("[TABLES] Combined %d tables into %s org=%s", len(tables), group, orgID)
	return &models.CombineResult{GroupID: group, Tables: tables}, nil
}

// Split снимает объединение группы.
func (s *TableService) Split(ctx context.Context, orgID, group string) error {
	if group == "" {
		return fmt.Errorf("%w: group_id required", ErrValidation)
	}
	n, err := s.repo.ClearGroup(ctx, orgID, group)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", group, ErrNotFound)
	}
	log.Infof("[TABLES] Split group %s (%d tables) org=%s", group, n, orgID)
	return nil
}

// ============================================================
// Import / Export
// ============================================================

// Import создает столы из SVG плана зала.
func (s *TableService) Import(ctx context.Context, orgID string, r io.Reader, replace bool) (*models.ImportResult, error) {
	tables, err := importer.ParseSVG(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables found in svg", ErrValidation)
	}

	created, err := s.repo.CreateMany(ctx, orgID, tables, replace)
	if err != nil {
		return nil, fmt.Errorf("import tables: %w", err)
	}
	log.Infof("[TABLES] Imported %d tables org=%s replace=%t", len(created), orgID, replace)
	return &models.ImportResult{Created: created}, nil
}

// ExportSVG рисует текущий план в SVG размером width x height.
func (s *TableService) ExportSVG(ctx context.Context, orgID string, w io.Writer, width, height int) error {
	tables, err := s.repo.List(ctx, orgID, repository.Filter{})
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	view := geometry.NewViewport(geometry.DefaultMinZoom, geometry.DefaultMaxZoom)
	if bounds, ok := render.Bounds(tables); ok {
		view = render.FitView(bounds, float64(width), float64(height), 20, view)
	}

	cmds := render.Render(tables, render.Options{
		View:       view,
		Width:      float64(width),
		Height:     float64(height),
		ShowLabels: true,
	})
	return render.WriteSVG(w, cmds, width, height)
}

func (s *TableService) nextNumber(ctx context.Context, orgID string) (string, error) {
	tables, err := s.repo.List(ctx, orgID, repository.Filter{})
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	max := 0
	for _, t := range tables {
		if n, err := strconv.Atoi(t.TableNumber); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1), nil
}
