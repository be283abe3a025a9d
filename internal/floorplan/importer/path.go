package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"floorplan/internal/floorplan/models"
)

// ============================================================
// Path Parser
// ============================================================

var pathCommandRe = regexp.MustCompile(`([MmLlHhVvCcSsQqTtAaZz])([^MmLlHhVvCcSsQqTtAaZz]*)`)

// argsPerCommand сколько чисел занимает одно повторение команды.
var argsPerCommand = map[byte]int{
	'M': 2, 'L': 2, 'T': 2,
	'H': 1, 'V': 1,
	'C': 6, 'S': 4, 'Q': 4,
	'A': 7,
}

// ParsePath возвращает опорные точки SVG path.
// Для кривых берется только конечная точка сегмента: для габарита стола этого достаточно.
func ParsePath(d string) ([]models.Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}

	var points []models.Point
	var cur, start models.Point

	for _, match := range pathCommandRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1][0]
		args := parseCoords(match[2])
		upper := cmd &^ 0x20
		relative := cmd != upper

		if upper == 'Z' {
			cur = start
			if len(points) > 0 {
				points = append(points, start)
			}
			continue
		}

		n := argsPerCommand[upper]
		if len(args) < n {
			return nil, fmt.Errorf("command %c: expected %d args, got %d", cmd, n, len(args))
		}

		for i := 0; i+n <= len(args); i += n {
			seg := args[i : i+n]
			next := cur

			switch upper {
			case 'H':
				next.X = seg[0]
				if relative {
					next.X = cur.X + seg[0]
				}
			case 'V':
				next.Y = seg[0]
				if relative {
					next.Y = cur.Y + seg[0]
				}
			default:
				// конечная точка: последние два числа сегмента
				x, y := seg[n-2], seg[n-1]
				if relative {
					x += cur.X
					y += cur.Y
				}
				next = models.Point{X: x, Y: y}
			}

			cur = next
			if upper == 'M' && i == 0 {
				start = cur
			}
			points = append(points, cur)
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("path has no points")
	}
	return points, nil
}

func parseCoords(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Разделитель: запятая или пробел
	s = strings.ReplaceAll(s, ",", " ")
	parts := strings.Fields(s)

	coords := make([]float64, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 64)
		if err == nil {
			coords = append(coords, val)
		}
	}

	return coords
}

// boundingBox габарит набора точек: minX, minY, width, height.
func boundingBox(points []models.Point) (float64, float64, float64, float64) {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX - minX, maxY - minY
}
