package geometry

import (
	"math"
	"testing"

	"floorplan/internal/floorplan/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// centered строит стол с центром в (cx, cy).
func centered(id string, shape models.ShapeKind, cx, cy, w, h, rot float64) models.Table {
	return models.Table{
		ID:       id,
		Shape:    shape,
		X:        cx - w/2,
		Y:        cy - h/2,
		Width:    w,
		Height:   h,
		Rotation: rot,
		Capacity: 4,
		Status:   models.StatusAvailable,
	}
}

// ============================================================
// Transform
// ============================================================

func TestTransformInverse(t *testing.T) {
	points := []models.Point{{X: 0, Y: 0}, {X: 12.5, Y: -7.25}, {X: 1e6, Y: -3e5}, {X: -0.001, Y: 0.002}}
	pans := []models.Point{{X: 0, Y: 0}, {X: 150, Y: -40}, {X: -1e4, Y: 2e4}}
	zooms := []float64{0.5, 0.75, 1, 1.3, 2}

	for _, p := range points {
		for _, pan := range pans {
			for _, z := range zooms {
				got := ToPlanSpace(ToDeviceSpace(p, pan, z), pan, z)
				assert.InDelta(t, p.X, got.X, 1e-6)
				assert.InDelta(t, p.Y, got.Y, 1e-6)
			}
		}
	}
}

func TestViewportClampsZoom(t *testing.T) {
	v := NewViewport(0.5, 2.0)
	assert.Equal(t, 1.0, v.Zoom)

	v.SetZoom(10)
	assert.Equal(t, 2.0, v.Zoom)

	v.SetZoom(0.01)
	assert.Equal(t, 0.5, v.Zoom)

	v.SetZoom(-3)
	assert.Equal(t, 0.5, v.Zoom)

	v.SetZoom(math.NaN())
	assert.Equal(t, 0.5, v.Zoom)
}

func TestViewportZoomAtKeepsAnchor(t *testing.T) {
	v := NewViewport(0.5, 2.0)
	v.PanBy(30, -20)

	anchor := models.Point{X: 200, Y: 150}
	before := v.ToPlan(anchor)
	v.ZoomAt(anchor, 1.5)

	assert.Equal(t, 1.5, v.Zoom)
	after := v.ToPlan(anchor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	v.ZoomAt(anchor, 100)
	assert.Equal(t, 2.0, v.Zoom)
	after = v.ToPlan(anchor)
	assert.InDelta(t, before.X, after.X, 1e-9)
}

func TestViewportPanIsUnbounded(t *testing.T) {
	v := NewViewport(0.5, 2.0)
	v.PanBy(-1e9, 1e9)
	assert.Equal(t, models.Point{X: -1e9, Y: 1e9}, v.Pan)
}

func TestViewportDPR(t *testing.T) {
	v := NewViewport(0.5, 2.0)
	v.DPR = 2
	w, h := v.BackingSize(400, 300.4)
	assert.Equal(t, 800, w)
	assert.Equal(t, 601, h)
	assert.Equal(t, models.Point{X: 20, Y: 30}, v.CanvasPoint(models.Point{X: 10, Y: 15}))

	v.DPR = 0
	assert.Equal(t, models.Point{X: 10, Y: 15}, v.CanvasPoint(models.Point{X: 10, Y: 15}))
}

// ============================================================
// Hit testing
// ============================================================

func TestContainsRectangle(t *testing.T) {
	table := centered("t1", models.ShapeRectangle, 100, 100, 80, 60, 0)

	assert.True(t, Contains(table, models.Point{X: 100, Y: 100}), "center")
	assert.True(t, Contains(table, models.Point{X: 140, Y: 100}), "right edge")
	assert.False(t, Contains(table, models.Point{X: 141, Y: 100}), "past right edge")
	assert.True(t, Contains(table, models.Point{X: 100, Y: 130}), "bottom edge")
	assert.False(t, Contains(table, models.Point{X: 100, Y: 131}), "past bottom edge")
}

func TestContainsRotation(t *testing.T) {
	flat := centered("t1", models.ShapeRectangle, 100, 100, 80, 60, 0)
	turned := flat
	turned.Rotation = 90

	// вдоль X: внутри до поворота, снаружи после
	alongX := models.Point{X: 135, Y: 100}
	assert.True(t, Contains(flat, alongX))
	assert.False(t, Contains(turned, alongX))

	// вдоль Y: снаружи до поворота, внутри после
	alongY := models.Point{X: 100, Y: 135}
	assert.False(t, Contains(flat, alongY))
	assert.True(t, Contains(turned, alongY))

	// новые края: |dx| <= 30, |dy| <= 40
	assert.True(t, Contains(turned, models.Point{X: 130, Y: 140}))
	assert.False(t, Contains(turned, models.Point{X: 141, Y: 100}))
}

func TestContainsRotation45(t *testing.T) {
	square := centered("t1", models.ShapeSquare, 0, 0, 100, 100, 45)

	// угол неповернутого квадрата выпадает после поворота на 45°
	assert.False(t, Contains(square, models.Point{X: 49, Y: 49}))
	// вершина ромба лежит на оси X на расстоянии 50*sqrt(2)
	assert.True(t, Contains(square, models.Point{X: 70, Y: 0}))
	assert.False(t, Contains(square, models.Point{X: 71, Y: 0}))
}

func TestContainsEllipse(t *testing.T) {
	round := centered("r1", models.ShapeRound, 0, 0, 100, 100, 0)

	assert.True(t, Contains(round, models.Point{X: 35, Y: 35}))
	assert.False(t, Contains(round, models.Point{X: 36, Y: 36}))
	assert.True(t, Contains(round, models.Point{X: 50, Y: 0}), "boundary")

	oval := centered("o1", models.ShapeOval, 0, 0, 100, 60, 90)
	assert.True(t, Contains(oval, models.Point{X: 0, Y: 49}))
	assert.False(t, Contains(oval, models.Point{X: 49, Y: 0}))
}

func TestContainsDegenerate(t *testing.T) {
	zero := centered("z", models.ShapeRectangle, 0, 0, 0, 0, 0)
	assert.False(t, Contains(zero, models.Point{X: 0, Y: 0}))

	flat := centered("f", models.ShapeRound, 0, 0, 10, 0, 0)
	assert.False(t, Contains(flat, models.Point{X: 0, Y: 0}))

	negative := centered("n", models.ShapeSquare, 0, 0, -10, 10, 0)
	assert.False(t, Contains(negative, models.Point{X: 0, Y: 0}))
}

func TestPickTopmostWins(t *testing.T) {
	tables := []models.Table{
		centered("bottom", models.ShapeRectangle, 100, 100, 80, 60, 0),
		centered("top", models.ShapeRound, 120, 100, 60, 60, 0),
	}

	idx, ok := Pick(tables, models.Point{X: 120, Y: 100})
	require.True(t, ok)
	assert.Equal(t, "top", tables[idx].ID)

	idx, ok = Pick(tables, models.Point{X: 65, Y: 100})
	require.True(t, ok)
	assert.Equal(t, "bottom", tables[idx].ID)

	_, ok = Pick(tables, models.Point{X: 500, Y: 500})
	assert.False(t, ok)

	_, ok = Pick(nil, models.Point{})
	assert.False(t, ok)
}

func TestCorners(t *testing.T) {
	table := centered("t", models.ShapeRectangle, 0, 0, 80, 60, 90)
	corners := Corners(table)
	require.Len(t, corners, 4)
	assert.InDelta(t, 30, corners[0].X, 1e-9)
	assert.InDelta(t, -40, corners[0].Y, 1e-9)
}

// ============================================================
// Snap & rotation
// ============================================================

func TestSnap(t *testing.T) {
	assert.Equal(t, 20.0, Snap(14, 20))
	assert.Equal(t, 0.0, Snap(9.9, 20))
	assert.Equal(t, -20.0, Snap(-11, 20))
	assert.Equal(t, 13.3, Snap(13.3, 0))
	assert.Equal(t, 13.3, Snap(13.3, -5))

	for _, v := range []float64{-123.4, -0.5, 0, 7, 19.99, 333.3, 1e5} {
		for _, g := range []float64{1, 5, 10, 20, 25} {
			once := Snap(v, g)
			assert.Equal(t, once, Snap(once, g), "snap(%v, %v) not idempotent", v, g)
		}
	}
}

func TestNormalizeRotation(t *testing.T) {
	for r0 := 0.0; r0 < 360; r0 += 15 {
		r := r0
		for n := 1; n <= 20; n++ {
			r = Rotate(r, 45)
			want := math.Mod(r0+45*float64(n), 360)
			assert.InDelta(t, want, r, 1e-9)
			assert.GreaterOrEqual(t, r, 0.0)
			assert.Less(t, r, 360.0)
		}
	}

	assert.Equal(t, 315.0, NormalizeRotation(-45))
	assert.Equal(t, 0.0, NormalizeRotation(720))
	assert.Equal(t, 0.0, NormalizeRotation(math.Inf(1)))
	assert.Equal(t, 0.0, NormalizeRotation(math.NaN()))
}

func TestDragPosition(t *testing.T) {
	table := models.Table{X: 50, Y: 50}
	pointer := models.Point{X: 55, Y: 60}
	offset := pointer.Sub(table.Position())
	assert.Equal(t, models.Point{X: 5, Y: 10}, offset)

	pos := DragPosition(models.Point{X: 105, Y: 120}, offset, 20, false)
	assert.Equal(t, models.Point{X: 100, Y: 110}, pos)

	snapped := DragPosition(models.Point{X: 105, Y: 120}, offset, 20, true)
	assert.Equal(t, models.Point{X: 100, Y: 120}, snapped)
}

// ============================================================
// Adjacency
// ============================================================

func TestAdjacentScenario(t *testing.T) {
	t1 := centered("1", models.ShapeSquare, 0, 0, 40, 40, 0)
	t2 := centered("2", models.ShapeSquare, 50, 0, 40, 40, 0)
	t3 := centered("3", models.ShapeSquare, 200, 0, 40, 40, 0)

	assert.True(t, Adjacent([]models.Table{t1, t2}, 100))
	assert.False(t, Adjacent([]models.Table{t1, t2, t3}, 100))
	assert.Equal(t, []string{"3"}, Isolated([]models.Table{t1, t2, t3}, 100))
	assert.True(t, Adjacent([]models.Table{t3}, 100), "single table is vacuously adjacent")
}

func TestAdjacentChainIsNotTransitive(t *testing.T) {
	a := centered("a", models.ShapeRound, 0, 0, 40, 40, 0)
	b := centered("b", models.ShapeRound, 90, 0, 40, 40, 0)
	c := centered("c", models.ShapeRound, 180, 0, 40, 40, 0)
	d := centered("d", models.ShapeRound, 1000, 0, 40, 40, 0)
	e := centered("e", models.ShapeRound, 1050, 0, 40, 40, 0)

	assert.True(t, Adjacent([]models.Table{a, b, c}, 100))
	// две пары далеко друг от друга тоже проходят: у каждого есть сосед
	assert.True(t, Adjacent([]models.Table{a, b, d, e}, 100))
	assert.Equal(t, [][]string{{"a", "b"}, {"d", "e"}}, Clusters([]models.Table{a, b, d, e}, 100))
}

func TestAdjacentThresholdInclusive(t *testing.T) {
	a := centered("a", models.ShapeSquare, 0, 0, 10, 10, 0)
	b := centered("b", models.ShapeSquare, 100, 0, 10, 10, 0)
	assert.True(t, Adjacent([]models.Table{a, b}, 100))
	assert.False(t, Adjacent([]models.Table{a, b}, 99.9))
}

func TestCheckCombine(t *testing.T) {
	a := centered("a", models.ShapeSquare, 0, 0, 40, 40, 0)
	b := centered("b", models.ShapeSquare, 60, 0, 40, 40, 0)
	far := centered("far", models.ShapeSquare, 500, 0, 40, 40, 0)

	assert.NoError(t, CheckCombine([]models.Table{a, b}, 100))
	assert.ErrorIs(t, CheckCombine([]models.Table{a}, 100), ErrCombineTooFew)
	assert.ErrorIs(t, CheckCombine(nil, 100), ErrCombineTooFew)
	assert.ErrorIs(t, CheckCombine([]models.Table{a, b, far}, 100), ErrNotAdjacent)

	b.CombinedGroup = "g1"
	assert.ErrorIs(t, CheckCombine([]models.Table{a, b}, 100), ErrAlreadyCombined)
}
