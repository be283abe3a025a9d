package main

import (
	"fmt"
	"io"
	"os"

	"floorplan/internal/common/config"
	"floorplan/internal/floorplan/geometry"
	"floorplan/internal/floorplan/models"
	"floorplan/internal/floorplan/render"

	"github.com/spf13/cobra"
)

var (
	renderOut    string
	renderWidth  int
	renderHeight int
	renderGrid   bool
)

// renderCmd writes the current floor plan as an SVG image
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the floor plan to SVG",
	Long: `Fetches all tables and draws them fitted into the requested size.
Use --out - to write the SVG to stdout.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "plan.svg", "output file, - for stdout")
	renderCmd.Flags().IntVar(&renderWidth, "width", 1200, "image width, px")
	renderCmd.Flags().IntVar(&renderHeight, "height", 800, "image height, px")
	renderCmd.Flags().BoolVar(&renderGrid, "grid", false, "draw the alignment grid")
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderWidth <= 0 || renderHeight <= 0 {
		return fmt.Errorf("width and height must be positive")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	tables, err := apiClient().ListTables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	if renderOut == "-" {
		return renderPlan(cmd.OutOrStdout(), tables, cliCfg.Editor)
	}

	f, err := os.Create(renderOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", renderOut, err)
	}
	if err := renderPlan(f, tables, cliCfg.Editor); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d tables to %s\n", len(tables), renderOut)
	return nil
}

func renderPlan(w io.Writer, tables []models.Table, cfg config.EditorConfig) error {
	width, height := float64(renderWidth), float64(renderHeight)

	view := geometry.NewViewport(cfg.MinZoom, cfg.MaxZoom)
	if bounds, ok := render.Bounds(tables); ok {
		view = render.FitView(bounds, width, height, 20, view)
	}

	cmds := render.Render(tables, render.Options{
		View:       view,
		Width:      width,
		Height:     height,
		ShowGrid:   renderGrid,
		GridSize:   cfg.GridSize,
		ShowLabels: true,
	})
	return render.WriteSVG(w, cmds, renderWidth, renderHeight)
}
