package geometry

import (
	"errors"
	"fmt"

	"floorplan/internal/floorplan/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ============================================================
// Adjacency (table combination)
// ============================================================

const DefaultAdjacencyThreshold = 100.0

// CenterDistance расстояние между центрами двух столов.
func CenterDistance(a, b models.Table) float64 {
	return planar.Distance(orbPoint(a.Center()), orbPoint(b.Center()))
}

// Isolated возвращает id столов, у которых нет соседа ближе threshold.
func Isolated(tables []models.Table, threshold float64) []string {
	var out []string
	for i, t := range tables {
		found := false
		for j, other := range tables {
			if i == j {
				continue
			}
			if CenterDistance(t, other) <= threshold {
				found = true
				break
			}
		}
		if !found {
			out = append(out, t.ID)
		}
	}
	return out
}

// Adjacent true, если у каждого стола есть хотя бы один сосед в пределах threshold.
// Это не проверка связности: цепочка A-B-C проходит, даже если A и C далеко.
// Пустой и одиночный набор проверку проходят; минимум из двух столов проверяет вызывающий.
func Adjacent(tables []models.Table, threshold float64) bool {
	if len(tables) < 2 {
		return true
	}
	return len(Isolated(tables, threshold)) == 0
}

var (
	ErrCombineTooFew   = errors.New("at least two tables are required to combine")
	ErrNotAdjacent     = errors.New("tables are not adjacent")
	ErrAlreadyCombined = errors.New("table already belongs to another group")
)

// CheckCombine проверяет, можно ли объединить набор столов.
func CheckCombine(tables []models.Table, threshold float64) error {
	if len(tables) < 2 {
		return ErrCombineTooFew
	}
	for _, t := range tables {
		if t.CombinedGroup != "" {
			return fmt.Errorf("%w: table %s in group %s", ErrAlreadyCombined, t.TableNumber, t.CombinedGroup)
		}
	}
	if isolated := Isolated(tables, threshold); len(isolated) > 0 {
		return fmt.Errorf("%w: no neighbour within %g for %v", ErrNotAdjacent, threshold, isolated)
	}
	return nil
}

// Clusters разбивает набор на компоненты связности графа "ближе threshold".
// Только для диагностики, на правило Adjacent не влияет.
func Clusters(tables []models.Table, threshold float64) [][]string {
	parent := make([]int, len(tables))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < len(tables); i++ {
		for j := i + 1; j < len(tables); j++ {
			if CenterDistance(tables[i], tables[j]) <= threshold {
				parent[find(i)] = find(j)
			}
		}
	}

	groups := make(map[int][]string)
	var roots []int
	for i, t := range tables {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], t.ID)
	}

	out := make([][]string, 0, len(roots))
	for _, r := range roots {
		out = append(out, groups[r])
	}
	return out
}

func orbPoint(p models.Point) orb.Point {
	return orb.Point{p.X, p.Y}
}
