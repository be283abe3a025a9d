package geometry

import (
	"math"

	"floorplan/internal/floorplan/models"
)

// ============================================================
// Coordinate Transform
// ============================================================

const (
	DefaultMinZoom = 0.5
	DefaultMaxZoom = 2.0
)

// ToPlanSpace переводит точку экрана в координаты плана: (device - pan) / zoom.
func ToPlanSpace(device, pan models.Point, zoom float64) models.Point {
	return models.Point{
		X: (device.X - pan.X) / zoom,
		Y: (device.Y - pan.Y) / zoom,
	}
}

// ToDeviceSpace обратное преобразование: plan * zoom + pan.
func ToDeviceSpace(plan, pan models.Point, zoom float64) models.Point {
	return models.Point{
		X: plan.X*zoom + pan.X,
		Y: plan.Y*zoom + pan.Y,
	}
}

// Viewport хранит состояние pan/zoom поверхности редактора.
// DPR влияет только на размер backing store, не на координаты плана.
type Viewport struct {
	Pan     models.Point
	Zoom    float64
	DPR     float64
	MinZoom float64
	MaxZoom float64
}

func NewViewport(minZoom, maxZoom float64) Viewport {
	if minZoom <= 0 {
		minZoom = DefaultMinZoom
	}
	if maxZoom < minZoom {
		maxZoom = minZoom
	}
	return Viewport{
		Zoom:    clamp(1, minZoom, maxZoom),
		DPR:     1,
		MinZoom: minZoom,
		MaxZoom: maxZoom,
	}
}

// SetZoom ограничивает zoom диапазоном [MinZoom, MaxZoom]; ошибок не бывает.
func (v *Viewport) SetZoom(zoom float64) {
	if math.IsNaN(zoom) {
		return
	}
	v.Zoom = clamp(zoom, v.MinZoom, v.MaxZoom)
}

// ZoomAt масштабирует вокруг точки экрана anchor: точка плана под ней остается на месте.
func (v *Viewport) ZoomAt(anchor models.Point, factor float64) {
	if !(factor > 0) {
		return
	}
	planAnchor := v.ToPlan(anchor)
	v.SetZoom(v.Zoom * factor)
	v.Pan = models.Point{
		X: anchor.X - planAnchor.X*v.Zoom,
		Y: anchor.Y - planAnchor.Y*v.Zoom,
	}
}

// PanBy сдвигает вид без ограничений.
func (v *Viewport) PanBy(dx, dy float64) {
	v.Pan.X += dx
	v.Pan.Y += dy
}

func (v Viewport) ToPlan(device models.Point) models.Point {
	return ToPlanSpace(device, v.Pan, v.Zoom)
}

func (v Viewport) ToDevice(plan models.Point) models.Point {
	return ToDeviceSpace(plan, v.Pan, v.Zoom)
}

// CanvasPoint переводит CSS-пиксели в пиксели canvas с учетом DPR.
func (v Viewport) CanvasPoint(device models.Point) models.Point {
	dpr := v.dpr()
	return models.Point{X: device.X * dpr, Y: device.Y * dpr}
}

// BackingSize размер backing store canvas для видимого размера cssW x cssH.
func (v Viewport) BackingSize(cssW, cssH float64) (int, int) {
	dpr := v.dpr()
	return int(math.Round(cssW * dpr)), int(math.Round(cssH * dpr))
}

func (v Viewport) dpr() float64 {
	if v.DPR > 0 {
		return v.DPR
	}
	return 1
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
