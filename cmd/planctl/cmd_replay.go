package main

import (
	"context"
	"fmt"
	"os"

	"floorplan/internal/floorplan/editor"
	"floorplan/internal/floorplan/models"
	"floorplan/internal/floorplan/render"

	"github.com/gofiber/fiber/v3/log"
	"github.com/spf13/cobra"
)

var (
	replayConfirm bool
	replayFrame   string
)

// replayCmd drives the editor with a scripted session against the API
var replayCmd = &cobra.Command{
	Use:   "replay SCRIPT.yaml",
	Short: "Replay an editor session against the API",
	Long: `Loads the floor plan, applies the scripted pointer and toolbar actions
through the editor and waits until every change has been saved.

Example script:

  snap_to_grid: true
  steps:
    - down: {x: 55, y: 60}
    - move: {x: 105, y: 120}
    - up:   {x: 105, y: 120}
    - rotate: true
    - add: {shape: round, x: 400, y: 300}
    - undo: true`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayConfirm, "confirm-delete", true, "answer yes to delete confirmations")
	replayCmd.Flags().StringVar(&replayFrame, "frame", "", "write the final editor frame as SVG to this file")
}

func runReplay(cmd *cobra.Command, args []string) error {
	script, err := LoadScript(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	c := apiClient()

	failures := 0
	ed, err := editor.New(editor.Options{
		Persister: c,
		Loader:    c,
		Confirmer: editor.ConfirmFunc(func(t models.Table) bool {
			log.Debugf("[REPLAY] confirm delete of table %s: %v", t.TableNumber, replayConfirm)
			return replayConfirm
		}),
		Notifier: editor.NotifyFunc(func(f editor.Failure) {
			failures++
			fmt.Fprintf(errOut, "save failed, reverted: %v\n", f)
		}),
		Config: cliCfg.Editor,
	})
	if err != nil {
		return err
	}

	if err := ed.Load(ctx); err != nil {
		ed.Close(context.Background())
		return fmt.Errorf("load plan: %w", err)
	}

	stepErrors := script.Run(ed, errOut)

	if err := ed.Flush(ctx); err != nil {
		log.Warnf("[REPLAY] flush: %v", err)
	}
	if err := ed.Close(ctx); err != nil {
		return fmt.Errorf("close editor: %w", err)
	}

	tables := ed.Tables()
	if err := printTables(out, tables, models.ComputeStats(tables)); err != nil {
		return err
	}

	if replayFrame != "" {
		if err := writeFrame(ed, replayFrame); err != nil {
			return err
		}
	}

	if stepErrors > 0 || failures > 0 {
		return fmt.Errorf("%d steps failed, %d saves reverted", stepErrors, failures)
	}
	return nil
}

func writeFrame(ed *editor.Editor, path string) error {
	const w, h = 1200, 800

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return render.WriteSVG(f, ed.Frame(w, h), w, h)
}
