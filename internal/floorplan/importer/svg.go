package importer

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"floorplan/internal/floorplan/geometry"
	"floorplan/internal/floorplan/models"
)

// ============================================================
// XML Structures
// ============================================================

// attrs атрибуты элемента, которые нужны импорту.
type attrs struct {
	ID        string
	Transform string
	Capacity  string
	Section   string
	Number    string

	X, Y, Width, Height float64
	CX, CY, RX, RY, R   float64
	D                   string
}

func readAttrs(se xml.StartElement) attrs {
	var a attrs
	for _, at := range se.Attr {
		v := at.Value
		switch at.Name.Local {
		case "id":
			a.ID = v
		case "transform":
			a.Transform = v
		case "data-capacity":
			a.Capacity = v
		case "data-section":
			a.Section = v
		case "data-number":
			a.Number = v
		case "x":
			a.X = parseFloat(v)
		case "y":
			a.Y = parseFloat(v)
		case "width":
			a.Width = parseFloat(v)
		case "height":
			a.Height = parseFloat(v)
		case "cx":
			a.CX = parseFloat(v)
		case "cy":
			a.CY = parseFloat(v)
		case "rx":
			a.RX = parseFloat(v)
		case "ry":
			a.RY = parseFloat(v)
		case "r":
			a.R = parseFloat(v)
		case "d":
			a.D = v
		}
	}
	return a
}

// ============================================================
// Parser
// ============================================================

// ParseSVG извлекает столы из SVG плана зала в порядке документа
// (позже в документе = выше при отрисовке).
// Столом считается элемент с id "Table_..." или "table-...".
// Трансформации всех предков (translate, rotate, scale, matrix) учитываются.
func ParseSVG(r io.Reader) ([]models.Table, error) {
	decoder := xml.NewDecoder(r)

	var (
		tables []models.Table
		stack  []matrix
		seen   bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode svg: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if !seen {
				if el.Name.Local != "svg" {
					return nil, fmt.Errorf("decode svg: root element is <%s>", el.Name.Local)
				}
				seen = true
			}

			parent := identity
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			a := readAttrs(el)
			m := parent.mul(parseTransform(a.Transform))
			stack = append(stack, m)

			if isTableID(a.ID) {
				if err := collect(el.Name.Local, a, m, &tables); err != nil {
					return nil, err
				}
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !seen {
		return nil, fmt.Errorf("decode svg: %w", io.ErrUnexpectedEOF)
	}
	return tables, nil
}

func collect(name string, a attrs, m matrix, out *[]models.Table) error {
	switch name {
	case "rect":
		shape := models.ShapeRectangle
		if almostEqual(a.Width, a.Height) {
			shape = models.ShapeSquare
		}
		appendTable(out, a, m, shape, a.X, a.Y, a.Width, a.Height)

	case "ellipse":
		shape := models.ShapeOval
		if almostEqual(a.RX, a.RY) {
			shape = models.ShapeRound
		}
		appendTable(out, a, m, shape, a.CX-a.RX, a.CY-a.RY, 2*a.RX, 2*a.RY)

	case "circle":
		appendTable(out, a, m, models.ShapeRound, a.CX-a.R, a.CY-a.R, 2*a.R, 2*a.R)

	case "path":
		points, err := ParsePath(a.D)
		if err != nil {
			return fmt.Errorf("path %s: %w", a.ID, err)
		}
		// Для path берем bounding box
		x, y, w, h := boundingBox(points)
		appendTable(out, a, m, models.ShapeRectangle, x, y, w, h)
	}
	return nil
}

// appendTable переводит локальный прямоугольник элемента в координаты плана:
// центр проходит через матрицу, размер масштабируется, угол берется из матрицы.
func appendTable(out *[]models.Table, a attrs, m matrix, shape models.ShapeKind, x, y, w, h float64) {
	center := m.apply(models.Point{X: x + w/2, Y: y + h/2})

	sx, sy := m.scale()
	w, h = w*sx, h*sy
	// вырожденные элементы не попадают в модель
	if !(w > 0) || !(h > 0) {
		return
	}

	t := models.Table{
		TableNumber: tableNumber(a),
		Capacity:    shape.DefaultCapacity(),
		Status:      models.StatusAvailable,
		Shape:       shape,
		X:           center.X - w/2,
		Y:           center.Y - h/2,
		Width:       w,
		Height:      h,
		Rotation:    geometry.NormalizeRotation(round6(m.rotation())),
		Section:     a.Section,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(a.Capacity)); err == nil && n > 0 {
		t.Capacity = n
	}

	*out = append(*out, t)
}

func isTableID(id string) bool {
	return strings.HasPrefix(id, "Table_") || strings.HasPrefix(id, "table-")
}

func tableNumber(a attrs) string {
	if a.Number != "" {
		return a.Number
	}
	id := strings.TrimPrefix(a.ID, "Table_")
	return strings.TrimPrefix(id, "table-")
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
	if err != nil {
		return 0
	}
	return v
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// round6 убирает шум sin/cos вроде 89.99999999999999.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
