package importer

import (
	"math"
	"regexp"

	"floorplan/internal/floorplan/models"
)

// ============================================================
// SVG transform
// ============================================================

// matrix аффинное преобразование SVG: x' = a*x + c*y + e, y' = b*x + d*y + f.
type matrix struct {
	a, b, c, d, e, f float64
}

var identity = matrix{a: 1, d: 1}

// mul возвращает m*n: сначала применяется n, затем m.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		a: m.a*n.a + m.c*n.b,
		b: m.b*n.a + m.d*n.b,
		c: m.a*n.c + m.c*n.d,
		d: m.b*n.c + m.d*n.d,
		e: m.a*n.e + m.c*n.f + m.e,
		f: m.b*n.e + m.d*n.f + m.f,
	}
}

func (m matrix) apply(p models.Point) models.Point {
	return models.Point{
		X: m.a*p.X + m.c*p.Y + m.e,
		Y: m.b*p.X + m.d*p.Y + m.f,
	}
}

// rotation угол поворота в градусах.
func (m matrix) rotation() float64 {
	return math.Atan2(m.b, m.a) * 180 / math.Pi
}

func (m matrix) scale() (float64, float64) {
	return math.Hypot(m.a, m.b), math.Hypot(m.c, m.d)
}

func translate(tx, ty float64) matrix {
	return matrix{a: 1, d: 1, e: tx, f: ty}
}

func rotate(deg float64) matrix {
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	return matrix{a: cos, b: sin, c: -sin, d: cos}
}

var transformRe = regexp.MustCompile(`(matrix|translate|scale|rotate)\s*\(([^)]*)\)`)

// parseTransform собирает список трансформаций слева направо.
// Неизвестные функции (skewX, skewY) пропускаются.
func parseTransform(s string) matrix {
	m := identity
	for _, match := range transformRe.FindAllStringSubmatch(s, -1) {
		args := parseCoords(match[2])
		switch match[1] {
		case "matrix":
			if len(args) == 6 {
				m = m.mul(matrix{a: args[0], b: args[1], c: args[2], d: args[3], e: args[4], f: args[5]})
			}
		case "translate":
			switch len(args) {
			case 1:
				m = m.mul(translate(args[0], 0))
			case 2:
				m = m.mul(translate(args[0], args[1]))
			}
		case "scale":
			switch len(args) {
			case 1:
				m = m.mul(matrix{a: args[0], d: args[0]})
			case 2:
				m = m.mul(matrix{a: args[0], d: args[1]})
			}
		case "rotate":
			switch len(args) {
			case 1:
				m = m.mul(rotate(args[0]))
			case 3:
				// rotate(a cx cy) = translate(cx cy) rotate(a) translate(-cx -cy)
				m = m.mul(translate(args[1], args[2])).mul(rotate(args[0])).mul(translate(-args[1], -args[2]))
			}
		}
	}
	return m
}
