package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"floorplan/internal/floorplan/editor"
	"floorplan/internal/floorplan/models"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Replay script
// ============================================================

// Script последовательность действий пользователя в редакторе.
type Script struct {
	Snap  *bool  `yaml:"snap_to_grid,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Step ровно одно действие; координаты указателя в пикселях экрана.
type Step struct {
	Tool   string        `yaml:"tool,omitempty"`
	Down   *models.Point `yaml:"down,omitempty"`
	Move   *models.Point `yaml:"move,omitempty"`
	Up     *models.Point `yaml:"up,omitempty"`
	Select string        `yaml:"select,omitempty"`
	Rotate bool          `yaml:"rotate,omitempty"`
	Delete bool          `yaml:"delete,omitempty"`
	Undo   bool          `yaml:"undo,omitempty"`
	Redo   bool          `yaml:"redo,omitempty"`
	Zoom   float64       `yaml:"zoom,omitempty"`
	Pan    *models.Point `yaml:"pan,omitempty"`
	Add    *AddStep      `yaml:"add,omitempty"`
	Resize *ResizeStep   `yaml:"resize,omitempty"`
}

type AddStep struct {
	Shape models.ShapeKind `yaml:"shape"`
	X     float64          `yaml:"x"`
	Y     float64          `yaml:"y"`
}

type ResizeStep struct {
	ID     string  `yaml:"id"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

var errEmptyStep = errors.New("step has no action")

func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return ParseScript(f)
}

func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}

	for i, st := range s.Steps {
		n, err := st.actions()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if n != 1 {
			return nil, fmt.Errorf("step %d: expected exactly one action, got %d", i+1, n)
		}
	}
	return &s, nil
}

func (s Step) actions() (int, error) {
	n := 0
	count := func(set bool) {
		if set {
			n++
		}
	}
	count(s.Tool != "")
	count(s.Down != nil)
	count(s.Move != nil)
	count(s.Up != nil)
	count(s.Select != "")
	count(s.Rotate)
	count(s.Delete)
	count(s.Undo)
	count(s.Redo)
	count(s.Zoom != 0)
	count(s.Pan != nil)
	count(s.Add != nil)
	count(s.Resize != nil)

	if n == 0 {
		return 0, errEmptyStep
	}
	if s.Tool != "" {
		if _, err := editor.ParseTool(s.Tool); err != nil {
			return n, err
		}
	}
	if s.Add != nil && s.Add.Shape != "" && !s.Add.Shape.Valid() {
		return n, fmt.Errorf("unknown shape %q", s.Add.Shape)
	}
	return n, nil
}

// Run применяет шаги к редактору. Ошибки отдельных шагов пишутся в w
// и не прерывают сценарий; возвращается их количество.
func (s *Script) Run(ed *editor.Editor, w io.Writer) int {
	if s.Snap != nil {
		ed.SetSnapToGrid(*s.Snap)
	}

	failed := 0
	for i, st := range s.Steps {
		if err := st.apply(ed); err != nil {
			failed++
			fmt.Fprintf(w, "step %d: %v\n", i+1, err)
		}
	}
	return failed
}

func (s Step) apply(ed *editor.Editor) error {
	switch {
	case s.Tool != "":
		t, err := editor.ParseTool(s.Tool)
		if err != nil {
			return err
		}
		ed.SetTool(t)
	case s.Down != nil:
		return ed.PointerDown(*s.Down)
	case s.Move != nil:
		ed.PointerMove(*s.Move)
	case s.Up != nil:
		return ed.PointerUp(*s.Up)
	case s.Select != "":
		return ed.Select(s.Select)
	case s.Rotate:
		return ed.RotateSelected()
	case s.Delete:
		return ed.DeleteSelected()
	case s.Undo:
		if !ed.Undo() {
			return errors.New("nothing to undo")
		}
	case s.Redo:
		if !ed.Redo() {
			return errors.New("nothing to redo")
		}
	case s.Zoom != 0:
		ed.SetZoom(s.Zoom)
	case s.Pan != nil:
		ed.PanBy(s.Pan.X, s.Pan.Y)
	case s.Add != nil:
		shape := s.Add.Shape
		if shape == "" {
			shape = models.ShapeSquare
		}
		_, err := ed.AddTable(shape, models.Point{X: s.Add.X, Y: s.Add.Y})
		return err
	case s.Resize != nil:
		return ed.Resize(s.Resize.ID, s.Resize.Width, s.Resize.Height)
	default:
		return errEmptyStep
	}
	return nil
}
