package editor

import (
	"fmt"
	"strings"

	"floorplan/internal/floorplan/models"
)

// Tool режим панели инструментов: SelectTool, AddTableTool или DeleteTool.
type Tool interface {
	fmt.Stringer
	tool()
}

// SelectTool выбирает и перетаскивает столы; по пустому месту двигает план.
type SelectTool struct{}

// AddTableTool ставит новый стол заданной формы в точку клика.
type AddTableTool struct {
	Shape models.ShapeKind
}

// DeleteTool удаляет стол под курсором после подтверждения.
type DeleteTool struct{}

func (SelectTool) tool()   {}
func (AddTableTool) tool() {}
func (DeleteTool) tool()   {}

func (SelectTool) String() string     { return "select" }
func (t AddTableTool) String() string { return "add:" + string(t.Shape) }
func (DeleteTool) String() string     { return "delete" }

// ParseTool разбирает "select", "delete" или "add:<shape>".
func ParseTool(s string) (Tool, error) {
	switch {
	case s == "select":
		return SelectTool{}, nil
	case s == "delete":
		return DeleteTool{}, nil
	case strings.HasPrefix(s, "add"):
		shape := models.ShapeKind(strings.TrimPrefix(strings.TrimPrefix(s, "add"), ":"))
		if shape == "" {
			shape = models.ShapeSquare
		}
		if !shape.Valid() {
			return nil, fmt.Errorf("unknown shape %q", shape)
		}
		return AddTableTool{Shape: shape}, nil
	}
	return nil, fmt.Errorf("unknown tool %q", s)
}
