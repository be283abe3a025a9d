package editor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"floorplan/internal/common/config"
	"floorplan/internal/floorplan/geometry"
	"floorplan/internal/floorplan/models"
	"floorplan/internal/floorplan/render"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
)

// ============================================================
// Floor Plan Editor
// ============================================================

var (
	ErrDeleteDeclined = errors.New("delete not confirmed")
	ErrInvalidSize    = errors.New("width and height must be positive")
	ErrNoSelection    = errors.New("no table selected")
	ErrUnknownTable   = errors.New("unknown table")
)

// Confirmer спрашивает пользователя перед удалением стола.
type Confirmer interface {
	Confirm(t models.Table) bool
}

type ConfirmFunc func(t models.Table) bool

func (f ConfirmFunc) Confirm(t models.Table) bool { return f(t) }

// Failure неудачная команда, локальная правка которой уже откатана.
type Failure struct {
	Command Command
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Command, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Notifier показывает пользователю ошибки сохранения.
type Notifier interface {
	Notify(f Failure)
}

type NotifyFunc func(f Failure)

func (f NotifyFunc) Notify(failure Failure) { f(failure) }

type Options struct {
	Persister Persister
	Loader    Loader
	Confirmer Confirmer
	Notifier  Notifier
	Config    config.EditorConfig
}

type dragState struct {
	id     string
	offset models.Point
	start  models.Table
	before []models.Table
}

// Editor хранит список столов (единственный источник правды для кадра),
// выделение, вид и историю; правки уходят в API через очередь команд.
type Editor struct {
	mu sync.Mutex

	tables     []models.Table
	selectedID string
	tool       Tool
	view       geometry.Viewport
	showGrid   bool
	snap       bool

	drag    *dragState
	panning bool
	lastPan models.Point

	cfg       config.EditorConfig
	history   *history
	queue     *queue
	loader    Loader
	confirmer Confirmer
	notifier  Notifier
	closed    bool
}

func New(opts Options) (*Editor, error) {
	if opts.Persister == nil {
		return nil, errors.New("editor: persister is required")
	}

	cfg := withDefaults(opts.Config)
	e := &Editor{
		tool:      SelectTool{},
		view:      geometry.NewViewport(cfg.MinZoom, cfg.MaxZoom),
		showGrid:  true,
		cfg:       cfg,
		history:   newHistory(cfg.HistoryDepth),
		loader:    opts.Loader,
		confirmer: opts.Confirmer,
		notifier:  opts.Notifier,
	}
	e.queue = newQueue(opts.Persister, e.onResult)
	return e, nil
}

func withDefaults(cfg config.EditorConfig) config.EditorConfig {
	if cfg.AdjacencyThreshold <= 0 {
		cfg.AdjacencyThreshold = geometry.DefaultAdjacencyThreshold
	}
	if cfg.GridSize <= 0 {
		cfg.GridSize = 20
	}
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = geometry.DefaultMinZoom
	}
	if cfg.MaxZoom <= 0 {
		cfg.MaxZoom = geometry.DefaultMaxZoom
	}
	if cfg.RotationStep == 0 {
		cfg.RotationStep = 45
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = DefaultHistoryDepth
	}
	return cfg
}

// Load загружает столы из Loader и сбрасывает историю.
func (e *Editor) Load(ctx context.Context) error {
	if e.loader == nil {
		return errors.New("editor: loader is not configured")
	}
	tables, err := e.loader.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.replaceLocked(tables)
	e.history.reset()
	log.Infof("[EDITOR] Loaded %d tables", len(tables))
	return nil
}

// ============================================================
// Pointer API (device coordinates)
// ============================================================

func (e *Editor) PointerDown(device models.Point) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	plan := e.view.ToPlan(device)

	switch tool := e.tool.(type) {
	case AddTableTool:
		_, err := e.addTableLocked(tool.Shape, plan)
		e.mu.Unlock()
		return err

	case DeleteTool:
		i, ok := geometry.Pick(e.tables, plan)
		if !ok {
			e.mu.Unlock()
			return nil
		}
		id := e.tables[i].ID
		e.mu.Unlock()
		return e.confirmAndDelete(id)

	default:
		if i, ok := geometry.Pick(e.tables, plan); ok {
			t := e.tables[i]
			e.selectedID = t.ID
			e.drag = &dragState{
				id:     t.ID,
				offset: plan.Sub(t.Position()),
				start:  t,
				before: cloneTables(e.tables),
			}
		} else {
			e.selectedID = ""
			e.panning = true
			e.lastPan = device
		}
		e.mu.Unlock()
		return nil
	}
}

func (e *Editor) PointerMove(device models.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.moveLocked(device)
}

// PointerUp завершает перетаскивание: одна команда update, если позиция изменилась.
func (e *Editor) PointerUp(device models.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.moveLocked(device)
	e.panning = false

	drag := e.drag
	e.drag = nil
	if drag == nil || e.closed {
		return nil
	}

	i := indexOf(e.tables, drag.id)
	if i < 0 {
		return nil
	}
	cur := e.tables[i]
	if cur.X == drag.start.X && cur.Y == drag.start.Y {
		return nil
	}
	return e.commitLocked(drag.before, updateCommand(drag.start, cur))
}

func (e *Editor) moveLocked(device models.Point) {
	if e.closed {
		return
	}
	if e.panning {
		e.view.PanBy(device.X-e.lastPan.X, device.Y-e.lastPan.Y)
		e.lastPan = device
		return
	}
	if e.drag == nil {
		return
	}
	i := indexOf(e.tables, e.drag.id)
	if i < 0 {
		e.drag = nil
		return
	}
	pos := geometry.DragPosition(e.view.ToPlan(device), e.drag.offset, e.cfg.GridSize, e.snap)
	e.tables[i].X = pos.X
	e.tables[i].Y = pos.Y
}

// ============================================================
// Toolbar API
// ============================================================

// SetTool переключает режим; незавершенное перетаскивание отменяется.
func (e *Editor) SetTool(t Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t == nil {
		t = SelectTool{}
	}
	e.cancelDragLocked()
	e.tool = t
}

func (e *Editor) Tool() Tool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

func (e *Editor) SetShowGrid(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.showGrid = on
}

func (e *Editor) SetSnapToGrid(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = on
}

// AddTable ставит стол формы shape центром в точку at (координаты плана).
func (e *Editor) AddTable(shape models.ShapeKind, at models.Point) (models.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return models.Table{}, ErrClosed
	}
	return e.addTableLocked(shape, at)
}

func (e *Editor) addTableLocked(shape models.ShapeKind, at models.Point) (models.Table, error) {
	if !shape.Valid() {
		return models.Table{}, fmt.Errorf("unknown shape %q", shape)
	}
	w, h := shape.DefaultSize()
	pos := models.Point{X: at.X - w/2, Y: at.Y - h/2}
	if e.snap {
		pos = geometry.SnapPoint(pos, e.cfg.GridSize)
	}

	t := models.Table{
		ID:          uuid.NewString(),
		TableNumber: nextNumber(e.tables),
		Capacity:    shape.DefaultCapacity(),
		Status:      models.StatusAvailable,
		Shape:       shape,
		X:           pos.X,
		Y:           pos.Y,
		Width:       w,
		Height:      h,
	}

	before := cloneTables(e.tables)
	e.tables = append(e.tables, t)
	e.selectedID = t.ID
	log.Debugf("[EDITOR] Add table %s (%s) at %.1f,%.1f", t.TableNumber, shape, t.X, t.Y)
	return t, e.commitLocked(before, createCommand(t, -1))
}

// Select выделяет стол по id; пустой id снимает выделение.
func (e *Editor) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != "" && indexOf(e.tables, id) < 0 {
		return ErrUnknownTable
	}
	e.selectedID = id
	return nil
}

// RotateSelected поворачивает выделенный стол на шаг поворота.
func (e *Editor) RotateSelected() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	i := indexOf(e.tables, e.selectedID)
	if i < 0 {
		return ErrNoSelection
	}
	e.cancelDragLocked()

	before := cloneTables(e.tables)
	prev := e.tables[i]
	e.tables[i].Rotation = geometry.Rotate(prev.Rotation, e.cfg.RotationStep)
	return e.commitLocked(before, updateCommand(prev, e.tables[i]))
}

// DeleteSelected удаляет выделенный стол после подтверждения.
func (e *Editor) DeleteSelected() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	id := e.selectedID
	e.mu.Unlock()

	if id == "" {
		return ErrNoSelection
	}
	return e.confirmAndDelete(id)
}

// confirmAndDelete спрашивает подтверждение без блокировки редактора.
func (e *Editor) confirmAndDelete(id string) error {
	e.mu.Lock()
	i := indexOf(e.tables, id)
	if i < 0 {
		e.mu.Unlock()
		return ErrUnknownTable
	}
	target := e.tables[i]
	confirmer := e.confirmer
	e.mu.Unlock()

	if confirmer != nil && !confirmer.Confirm(target) {
		return ErrDeleteDeclined
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	i = indexOf(e.tables, id)
	if i < 0 {
		return ErrUnknownTable
	}
	if e.drag != nil && e.drag.id == id {
		e.drag = nil
	}

	before := cloneTables(e.tables)
	prev := e.tables[i]
	e.tables = append(e.tables[:i:i], e.tables[i+1:]...)
	if e.selectedID == id {
		e.selectedID = ""
	}
	return e.commitLocked(before, deleteCommand(prev, i))
}

// Resize меняет размер стола; неположительные размеры отклоняются.
func (e *Editor) Resize(id string, width, height float64) error {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return ErrInvalidSize
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	i := indexOf(e.tables, id)
	if i < 0 {
		return ErrUnknownTable
	}
	prev := e.tables[i]
	if prev.Width == width && prev.Height == height {
		return nil
	}

	before := cloneTables(e.tables)
	e.tables[i].Width = width
	e.tables[i].Height = height
	return e.commitLocked(before, updateCommand(prev, e.tables[i]))
}

// CanCombine проверяет правило объединения для столов с указанными id.
func (e *Editor) CanCombine(ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := make([]models.Table, 0, len(ids))
	for _, id := range ids {
		i := indexOf(e.tables, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownTable, id)
		}
		set = append(set, e.tables[i])
	}
	return geometry.CheckCombine(set, e.cfg.AdjacencyThreshold)
}

// ============================================================
// View
// ============================================================

func (e *Editor) SetZoom(zoom float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.SetZoom(zoom)
}

// ZoomAt масштабирует вокруг точки экрана anchor.
func (e *Editor) ZoomAt(anchor models.Point, factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.ZoomAt(anchor, factor)
}

func (e *Editor) PanBy(dx, dy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.PanBy(dx, dy)
}

func (e *Editor) Viewport() geometry.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// SetDevicePixelRatio задает DPR поверхности рисования.
func (e *Editor) SetDevicePixelRatio(dpr float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if dpr > 0 {
		e.view.DPR = dpr
	}
}

// Frame строит команды рисования текущего состояния для поверхности width x height.
func (e *Editor) Frame(width, height float64) []render.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return render.Render(e.tables, render.Options{
		View:       e.view,
		Width:      width,
		Height:     height,
		ShowGrid:   e.showGrid,
		GridSize:   e.cfg.GridSize,
		ShowLabels: true,
		SelectedID: e.selectedID,
	})
}

// Tables возвращает копию списка столов в порядке отрисовки.
func (e *Editor) Tables() []models.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTables(e.tables)
}

func (e *Editor) Selected() (models.Table, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexOf(e.tables, e.selectedID)
	if i < 0 {
		return models.Table{}, false
	}
	return e.tables[i], true
}

// ============================================================
// History
// ============================================================

// Undo восстанавливает предыдущий снимок и отправляет разницу в API.
func (e *Editor) Undo() bool {
	return e.restore(e.history.undo)
}

func (e *Editor) Redo() bool {
	return e.restore(e.history.redo)
}

func (e *Editor) restore(step func([]models.Table) ([]models.Table, bool)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.cancelDragLocked()

	snapshot, ok := step(e.tables)
	if !ok {
		return false
	}
	cmds := diffCommands(e.tables, snapshot)
	e.replaceLocked(snapshot)
	if err := e.queue.enqueue(cmds...); err != nil {
		log.Warnf("[EDITOR] history commands not queued: %v", err)
	}
	return true
}

// ============================================================
// Lifecycle
// ============================================================

// Flush ждет, пока все поставленные команды будут обработаны.
func (e *Editor) Flush(ctx context.Context) error {
	return e.queue.flush(ctx)
}

// Close дожидается очереди (или отменяет ее по ctx); после Close
// результаты команд больше не меняют состояние и не вызывают Notifier.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.cancelDragLocked()
	e.mu.Unlock()

	return e.queue.close(ctx)
}

// onResult вызывается воркером очереди после каждой команды.
func (e *Editor) onResult(ctx context.Context, cmd Command, err error, idle bool) {
	if err != nil {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		e.tables = rollback(e.tables, cmd)
		if indexOf(e.tables, e.selectedID) < 0 {
			e.selectedID = ""
		}
		if e.drag != nil && indexOf(e.tables, e.drag.id) < 0 {
			e.drag = nil
		}
		notifier := e.notifier
		e.mu.Unlock()

		if notifier != nil {
			notifier.Notify(Failure{Command: cmd, Err: err})
		}
		return
	}

	if !idle || e.loader == nil || !e.cfg.ReloadAfterSave {
		return
	}

	tables, err := e.loader.ListTables(ctx)
	if err != nil {
		log.Warnf("[EDITOR] reload after save failed: %v", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// локальные правки, появившиеся во время загрузки, важнее
	if e.closed || e.drag != nil || e.queue.len() > 0 {
		return
	}
	e.replaceLocked(tables)
}

// ============================================================
// Helpers (call with e.mu held)
// ============================================================

func (e *Editor) commitLocked(before []models.Table, cmds ...Command) error {
	e.history.record(before)
	return e.queue.enqueue(cmds...)
}

// replaceLocked подменяет список, сохраняя выделение, если стол остался.
func (e *Editor) replaceLocked(tables []models.Table) {
	e.tables = cloneTables(tables)
	if indexOf(e.tables, e.selectedID) < 0 {
		e.selectedID = ""
	}
}

// cancelDragLocked возвращает перетаскиваемый стол на исходное место.
func (e *Editor) cancelDragLocked() {
	if e.drag != nil {
		if i := indexOf(e.tables, e.drag.id); i >= 0 {
			e.tables[i].X = e.drag.start.X
			e.tables[i].Y = e.drag.start.Y
		}
		e.drag = nil
	}
	e.panning = false
}

func nextNumber(tables []models.Table) string {
	max := 0
	for _, t := range tables {
		if n, err := strconv.Atoi(t.TableNumber); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}
