package models

import (
	"fmt"
	"math"
)

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

// ============================================================
// Shape kinds
// ============================================================

type ShapeKind string

const (
	ShapeSquare    ShapeKind = "square"
	ShapeRectangle ShapeKind = "rectangle"
	ShapeRound     ShapeKind = "round"
	ShapeOval      ShapeKind = "oval"
)

// Elliptical сообщает, проверяется ли фигура как эллипс (round/oval).
func (k ShapeKind) Elliptical() bool {
	return k == ShapeRound || k == ShapeOval
}

func (k ShapeKind) Valid() bool {
	switch k {
	case ShapeSquare, ShapeRectangle, ShapeRound, ShapeOval:
		return true
	}
	return false
}

// DefaultSize возвращает геометрию нового стола для инструмента "add".
func (k ShapeKind) DefaultSize() (width, height float64) {
	switch k {
	case ShapeRectangle:
		return 120, 60
	case ShapeOval:
		return 100, 60
	default:
		return 60, 60
	}
}

func (k ShapeKind) DefaultCapacity() int {
	if k == ShapeRectangle || k == ShapeOval {
		return 6
	}
	return 4
}

// ============================================================
// Table status
// ============================================================

type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
	StatusReserved  Status = "reserved"
	StatusCleaning  Status = "cleaning"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusCleaning:
		return true
	}
	return false
}

// ============================================================
// Table
// ============================================================

// Table хранит позицию (левый верхний угол неповернутого прямоугольника),
// размер и поворот стола в координатах плана.
type Table struct {
	ID            string    `json:"id"`
	TableNumber   string    `json:"table_number"`
	Capacity      int       `json:"capacity"`
	Status        Status    `json:"status"`
	Shape         ShapeKind `json:"shape"`
	X             float64   `json:"x_position"`
	Y             float64   `json:"y_position"`
	Width         float64   `json:"width"`
	Height        float64   `json:"height"`
	Rotation      float64   `json:"rotation"`
	Section       string    `json:"section,omitempty"`
	ServerName    string    `json:"server_name,omitempty"`
	CombinedGroup string    `json:"combined_group,omitempty"`
	CreatedAt     string    `json:"created_at,omitempty"`
	UpdatedAt     string    `json:"updated_at,omitempty"`
}

func (t Table) Position() Point {
	return Point{X: t.X, Y: t.Y}
}

// Center центр стола: (x + width/2, y + height/2).
func (t Table) Center() Point {
	return Point{X: t.X + t.Width/2, Y: t.Y + t.Height/2}
}

// SameGeometry сравнивает только то, что влияет на отрисовку и hit-test.
func (t Table) SameGeometry(o Table) bool {
	return t.X == o.X && t.Y == o.Y && t.Width == o.Width && t.Height == o.Height &&
		t.Rotation == o.Rotation && t.Shape == o.Shape
}

// Validate проверяет инварианты модели.
func (t Table) Validate() error {
	if !t.Shape.Valid() {
		return fmt.Errorf("unknown shape %q", t.Shape)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("unknown status %q", t.Status)
	}
	if !(t.Width > 0) || !(t.Height > 0) {
		return fmt.Errorf("width and height must be positive, got %vx%v", t.Width, t.Height)
	}
	if t.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", t.Capacity)
	}
	for _, v := range []float64{t.X, t.Y, t.Width, t.Height, t.Rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("geometry must be finite")
		}
	}
	if t.Rotation < 0 || t.Rotation >= 360 {
		return fmt.Errorf("rotation must be in [0,360), got %v", t.Rotation)
	}
	return nil
}

// ============================================================
// Partial update
// ============================================================

type TablePatch struct {
	TableNumber *string    `json:"table_number,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Shape       *ShapeKind `json:"shape,omitempty"`
	X           *float64   `json:"x_position,omitempty"`
	Y           *float64   `json:"y_position,omitempty"`
	Width       *float64   `json:"width,omitempty"`
	Height      *float64   `json:"height,omitempty"`
	Rotation    *float64   `json:"rotation,omitempty"`
	Section     *string    `json:"section,omitempty"`
	ServerName  *string    `json:"server_name,omitempty"`
}

func (p TablePatch) Empty() bool {
	return p == TablePatch{}
}

// Apply переносит заданные поля в t.
func (p TablePatch) Apply(t *Table) {
	if p.TableNumber != nil {
		t.TableNumber = *p.TableNumber
	}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Shape != nil {
		t.Shape = *p.Shape
	}
	if p.X != nil {
		t.X = *p.X
	}
	if p.Y != nil {
		t.Y = *p.Y
	}
	if p.Width != nil {
		t.Width = *p.Width
	}
	if p.Height != nil {
		t.Height = *p.Height
	}
	if p.Rotation != nil {
		t.Rotation = *p.Rotation
	}
	if p.Section != nil {
		t.Section = *p.Section
	}
	if p.ServerName != nil {
		t.ServerName = *p.ServerName
	}
}

// Diff строит патч из полей, которые отличаются между prev и next.
// prev с примененным Diff(prev, next) совпадает с next по всем изменяемым полям.
func Diff(prev, next Table) TablePatch {
	var p TablePatch
	if prev.TableNumber != next.TableNumber {
		p.TableNumber = ptr(next.TableNumber)
	}
	if prev.Capacity != next.Capacity {
		p.Capacity = ptr(next.Capacity)
	}
	if prev.Status != next.Status {
		p.Status = ptr(next.Status)
	}
	if prev.Section != next.Section {
		p.Section = ptr(next.Section)
	}
	if prev.ServerName != next.ServerName {
		p.ServerName = ptr(next.ServerName)
	}
	if prev.X != next.X {
		p.X = ptr(next.X)
	}
	if prev.Y != next.Y {
		p.Y = ptr(next.Y)
	}
	if prev.Width != next.Width {
		p.Width = ptr(next.Width)
	}
	if prev.Height != next.Height {
		p.Height = ptr(next.Height)
	}
	if prev.Rotation != next.Rotation {
		p.Rotation = ptr(next.Rotation)
	}
	if prev.Shape != next.Shape {
		p.Shape = ptr(next.Shape)
	}
	return p
}

func ptr[T any](v T) *T { return &v }

// ============================================================
// Stats & API envelope
// ============================================================

type Stats struct {
	Total         int     `json:"total"`
	Available     int     `json:"available"`
	Occupied      int     `json:"occupied"`
	Reserved      int     `json:"reserved"`
	Cleaning      int     `json:"cleaning"`
	TotalCapacity int     `json:"total_capacity"`
	OccupiedSeats int     `json:"occupied_seats"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// ComputeStats считает сводку по списку столов.
func ComputeStats(tables []Table) Stats {
	var s Stats
	for _, t := range tables {
		s.Total++
		s.TotalCapacity += t.Capacity
		switch t.Status {
		case StatusAvailable:
			s.Available++
		case StatusOccupied:
			s.Occupied++
			s.OccupiedSeats += t.Capacity
		case StatusReserved:
			s.Reserved++
		case StatusCleaning:
			s.Cleaning++
		}
	}
	if s.TotalCapacity > 0 {
		s.OccupancyRate = float64(s.OccupiedSeats) / float64(s.TotalCapacity)
	}
	return s
}

type TableList struct {
	Tables []Table `json:"tables"`
	Stats  Stats   `json:"stats"`
}

type CombineRequest struct {
	TableIDs []string `json:"table_ids"`
}

type CombineResult struct {
	GroupID string  `json:"group_id"`
	Tables  []Table `json:"tables"`
}

type SplitRequest struct {
	GroupID string `json:"group_id"`
}

type ImportResult struct {
	Created []Table `json:"created"`
}

// Envelope единый формат ответа API: { success, data?, message? }.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}
