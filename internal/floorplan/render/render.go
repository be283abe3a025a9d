package render

import (
	"fmt"
	"math"

	"floorplan/internal/floorplan/geometry"
	"floorplan/internal/floorplan/models"

	"github.com/paulmach/orb"
)

// ============================================================
// Draw commands
// ============================================================

type Op string

const (
	OpLine      Op = "line"
	OpRect      Op = "rect"
	OpEllipse   Op = "ellipse"
	OpLabel     Op = "label"
	OpSelection Op = "selection"
)

// Command одна операция рисования в координатах экрана.
// Для rect/ellipse/selection Center это центр фигуры, Rotation поворот вокруг него.
type Command struct {
	Op       Op
	TableID  string
	Center   models.Point
	From     models.Point
	To       models.Point
	Width    float64
	Height   float64
	Rotation float64
	Fill     string
	Stroke   string
	Text     string

	// метаданные стола для rect/ellipse, попадают в data-* атрибуты SVG
	Number   string
	Capacity int
	Section  string
}

type Options struct {
	View       geometry.Viewport
	Width      float64 // видимая ширина поверхности, CSS px
	Height     float64
	ShowGrid   bool
	GridSize   float64
	ShowLabels bool
	SelectedID string
}

// minGridSpacing меньше этого шага (в пикселях экрана) сетка не рисуется.
const minGridSpacing = 4.0

// maxGridLines ограничивает количество линий на кадр.
const maxGridLines = 2000

// ============================================================
// Render
// ============================================================

// Render строит полный кадр: сетка, столы в порядке списка, подписи, выделение.
func Render(tables []models.Table, opts Options) []Command {
	var out []Command

	if opts.ShowGrid {
		out = append(out, gridLines(opts)...)
	}

	zoom := opts.View.Zoom
	var selected *models.Table

	for i := range tables {
		t := tables[i]
		center := opts.View.ToDevice(t.Center())

		op := OpRect
		if t.Shape.Elliptical() {
			op = OpEllipse
		}

		out = append(out, Command{
			Op:       op,
			TableID:  t.ID,
			Center:   center,
			Width:    t.Width * zoom,
			Height:   t.Height * zoom,
			Rotation: t.Rotation,
			Fill:     statusFill(t.Status),
			Stroke:   strokeFor(t),
			Number:   t.TableNumber,
			Capacity: t.Capacity,
			Section:  t.Section,
		})

		if opts.ShowLabels {
			out = append(out, Command{
				Op:      OpLabel,
				TableID: t.ID,
				Center:  center,
				Text:    tableLabel(t),
			})
			if t.ServerName != "" {
				out = append(out, Command{
					Op:      OpLabel,
					TableID: t.ID,
					Center:  models.Point{X: center.X, Y: center.Y + 14},
					Text:    t.ServerName,
				})
			}
		}

		if t.ID != "" && t.ID == opts.SelectedID {
			selected = &tables[i]
		}
	}

	if selected != nil {
		out = append(out, Command{
			Op:       OpSelection,
			TableID:  selected.ID,
			Center:   opts.View.ToDevice(selected.Center()),
			Width:    selected.Width*zoom + 8,
			Height:   selected.Height*zoom + 8,
			Rotation: selected.Rotation,
			Stroke:   "#1976d2",
		})
	}

	return out
}

func gridLines(opts Options) []Command {
	grid := opts.GridSize
	zoom := opts.View.Zoom
	if !(grid > 0) || grid*zoom < minGridSpacing || opts.Width <= 0 || opts.Height <= 0 {
		return nil
	}

	topLeft := opts.View.ToPlan(models.Point{X: 0, Y: 0})
	bottomRight := opts.View.ToPlan(models.Point{X: opts.Width, Y: opts.Height})

	var out []Command
	for x := math.Floor(topLeft.X/grid) * grid; x <= bottomRight.X && len(out) < maxGridLines; x += grid {
		dx := opts.View.ToDevice(models.Point{X: x}).X
		out = append(out, Command{
			Op:     OpLine,
			From:   models.Point{X: dx, Y: 0},
			To:     models.Point{X: dx, Y: opts.Height},
			Stroke: "#eeeeee",
		})
	}
	for y := math.Floor(topLeft.Y/grid) * grid; y <= bottomRight.Y && len(out) < maxGridLines; y += grid {
		dy := opts.View.ToDevice(models.Point{Y: y}).Y
		out = append(out, Command{
			Op:     OpLine,
			From:   models.Point{X: 0, Y: dy},
			To:     models.Point{X: opts.Width, Y: dy},
			Stroke: "#eeeeee",
		})
	}
	return out
}

func statusFill(s models.Status) string {
	switch s {
	case models.StatusOccupied:
		return "#ffcdd2"
	case models.StatusReserved:
		return "#fff3c4"
	case models.StatusCleaning:
		return "#e0e0e0"
	default:
		return "#c8e6c9"
	}
}

func strokeFor(t models.Table) string {
	if t.CombinedGroup != "" {
		return "#6a1b9a"
	}
	return "#424242"
}

func tableLabel(t models.Table) string {
	if t.TableNumber == "" {
		return fmt.Sprintf("(%d)", t.Capacity)
	}
	return fmt.Sprintf("%s (%d)", t.TableNumber, t.Capacity)
}

// ============================================================
// Bounds & fit
// ============================================================

// Bounds габарит всех столов с учетом поворота. ok=false для пустого списка.
func Bounds(tables []models.Table) (orb.Bound, bool) {
	var b orb.Bound
	ok := false
	for _, t := range tables {
		for _, c := range geometry.Corners(t) {
			p := orb.Point{c.X, c.Y}
			if !ok {
				b = orb.Bound{Min: p, Max: p}
				ok = true
				continue
			}
			b = b.Extend(p)
		}
	}
	return b, ok
}

// FitView подбирает pan/zoom, чтобы bounds поместились в w x h с отступом margin.
func FitView(bounds orb.Bound, w, h, margin float64, view geometry.Viewport) geometry.Viewport {
	bw := bounds.Max[0] - bounds.Min[0]
	bh := bounds.Max[1] - bounds.Min[1]
	availW := w - 2*margin
	availH := h - 2*margin
	if availW <= 0 || availH <= 0 {
		return view
	}

	zoom := view.MaxZoom
	if bw > 0 {
		zoom = math.Min(zoom, availW/bw)
	}
	if bh > 0 {
		zoom = math.Min(zoom, availH/bh)
	}
	view.SetZoom(zoom)

	center := bounds.Center()
	view.Pan = models.Point{
		X: w/2 - center[0]*view.Zoom,
		Y: h/2 - center[1]*view.Zoom,
	}
	return view
}
