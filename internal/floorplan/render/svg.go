package render

import (
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// ============================================================
// SVG output
// ============================================================

// WriteSVG сериализует кадр в SVG документ размером width x height.
// Столы пишутся в порядке кадра, поэтому импорт того же файла сохраняет порядок отрисовки.
func WriteSVG(w io.Writer, commands []Command, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#ffffff")

	for _, cmd := range commands {
		if ew.err != nil {
			break
		}
		switch cmd.Op {
		case OpLine:
			canvas.Line(px(cmd.From.X), px(cmd.From.Y), px(cmd.To.X), px(cmd.To.Y),
				fmt.Sprintf("stroke:%s;stroke-width:1", cmd.Stroke))

		case OpRect:
			canvas.TranslateRotate(px(cmd.Center.X), px(cmd.Center.Y), cmd.Rotation)
			canvas.Rect(px(-cmd.Width/2), px(-cmd.Height/2), px(cmd.Width), px(cmd.Height),
				tableAttrs(cmd, shapeStyle(cmd))...)
			canvas.Gend()

		case OpEllipse:
			canvas.TranslateRotate(px(cmd.Center.X), px(cmd.Center.Y), cmd.Rotation)
			canvas.Ellipse(0, 0, px(cmd.Width/2), px(cmd.Height/2),
				tableAttrs(cmd, shapeStyle(cmd))...)
			canvas.Gend()

		case OpLabel:
			canvas.Text(px(cmd.Center.X), px(cmd.Center.Y)+4, cmd.Text,
				"text-anchor:middle;font-family:sans-serif;font-size:12px;fill:#212121")

		case OpSelection:
			canvas.TranslateRotate(px(cmd.Center.X), px(cmd.Center.Y), cmd.Rotation)
			canvas.Rect(px(-cmd.Width/2), px(-cmd.Height/2), px(cmd.Width), px(cmd.Height),
				fmt.Sprintf("fill:none;stroke:%s;stroke-width:2;stroke-dasharray:6,4", cmd.Stroke))
			canvas.Gend()
		}
	}

	canvas.End()
	if ew.err != nil {
		return fmt.Errorf("write svg: %w", ew.err)
	}
	return nil
}

// errWriter запоминает первую ошибку записи; svgo ее не возвращает.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func shapeStyle(cmd Command) string {
	return fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", cmd.Fill, cmd.Stroke)
}

// tableAttrs id и data-* атрибуты стола; svgo пишет строки с "=" как атрибуты.
func tableAttrs(cmd Command, style string) []string {
	out := []string{`id="table-` + html.EscapeString(cmd.TableID) + `"`}
	if cmd.Number != "" {
		out = append(out, `data-number="`+html.EscapeString(cmd.Number)+`"`)
	}
	if cmd.Capacity > 0 {
		out = append(out, fmt.Sprintf(`data-capacity="%d"`, cmd.Capacity))
	}
	if cmd.Section != "" {
		out = append(out, `data-section="`+html.EscapeString(cmd.Section)+`"`)
	}
	return append(out, style)
}

func px(v float64) int {
	return int(math.Round(v))
}
