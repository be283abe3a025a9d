package geometry

import (
	"math"

	"floorplan/internal/floorplan/models"
)

// ============================================================
// Hit Testing
// ============================================================

// ToLocal переводит точку плана в локальную систему стола:
// сдвиг к центру и поворот на -rotation.
func ToLocal(t models.Table, p models.Point) models.Point {
	c := t.Center()
	dx := p.X - c.X
	dy := p.Y - c.Y

	theta := -t.Rotation * math.Pi / 180
	cos := math.Cos(theta)
	sin := math.Sin(theta)

	return models.Point{
		X: dx*cos - dy*sin,
		Y: dx*sin + dy*cos,
	}
}

// Contains сообщает, попадает ли точка в стол. Граница считается внутренней.
// Вырожденные столы (width/height <= 0) не совпадают никогда.
func Contains(t models.Table, p models.Point) bool {
	if !(t.Width > 0) || !(t.Height > 0) {
		return false
	}

	local := ToLocal(t, p)
	halfW := t.Width / 2
	halfH := t.Height / 2

	if t.Shape.Elliptical() {
		nx := local.X / halfW
		ny := local.Y / halfH
		return nx*nx+ny*ny <= 1+epsilon
	}

	return math.Abs(local.X) <= halfW+epsilon && math.Abs(local.Y) <= halfH+epsilon
}

// epsilon поглощает ошибку sin/cos для точек ровно на границе.
const epsilon = 1e-9

// Pick возвращает индекс верхнего стола под точкой.
// Порядок отрисовки = приоритет: последний нарисованный проверяется первым.
func Pick(tables []models.Table, p models.Point) (int, bool) {
	for i := len(tables) - 1; i >= 0; i-- {
		if Contains(tables[i], p) {
			return i, true
		}
	}
	return -1, false
}

// Corners возвращает 4 угла повернутого стола в координатах плана.
func Corners(t models.Table) []models.Point {
	c := t.Center()
	halfW := t.Width / 2
	halfH := t.Height / 2

	points := []models.Point{
		{X: -halfW, Y: -halfH},
		{X: halfW, Y: -halfH},
		{X: halfW, Y: halfH},
		{X: -halfW, Y: halfH},
	}

	rad := t.Rotation * math.Pi / 180
	sin := math.Sin(rad)
	cos := math.Cos(rad)

	for i, p := range points {
		points[i] = models.Point{
			X: c.X + p.X*cos - p.Y*sin,
			Y: c.Y + p.X*sin + p.Y*cos,
		}
	}
	return points
}
