package geometry

import (
	"math"

	"floorplan/internal/floorplan/models"
)

// ============================================================
// Grid Snap & Rotation
// ============================================================

// Snap округляет v до ближайшего кратного grid. grid <= 0 отключает привязку.
func Snap(v, grid float64) float64 {
	if !(grid > 0) {
		return v
	}
	return math.Round(v/grid) * grid
}

// SnapPoint применяет Snap к каждой оси независимо.
func SnapPoint(p models.Point, grid float64) models.Point {
	return models.Point{X: Snap(p.X, grid), Y: Snap(p.Y, grid)}
}

// NormalizeRotation приводит угол к [0,360) математическим modulo.
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	// -1e-15 + 360 округляется до 360
	if r >= 360 {
		r = 0
	}
	return r
}

// Rotate поворачивает на increment градусов с нормализацией.
func Rotate(rotation, increment float64) float64 {
	return NormalizeRotation(rotation + increment)
}

// DragPosition новая позиция стола при перетаскивании.
func DragPosition(pointer, offset models.Point, grid float64, snap bool) models.Point {
	pos := pointer.Sub(offset)
	if snap {
		pos = SnapPoint(pos, grid)
	}
	return pos
}
