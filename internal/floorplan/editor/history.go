package editor

import "floorplan/internal/floorplan/models"

const DefaultHistoryDepth = 50

// history хранит снимки полного списка столов до каждой зафиксированной правки.
type history struct {
	past   [][]models.Table
	future [][]models.Table
	depth  int
}

func newHistory(depth int) *history {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &history{depth: depth}
}

// record сохраняет состояние до правки и сбрасывает redo.
func (h *history) record(before []models.Table) {
	h.past = append(h.past, cloneTables(before))
	if len(h.past) > h.depth {
		h.past = h.past[len(h.past)-h.depth:]
	}
	h.future = nil
}

func (h *history) undo(current []models.Table) ([]models.Table, bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, cloneTables(current))
	return cloneTables(prev), true
}

func (h *history) redo(current []models.Table) ([]models.Table, bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, cloneTables(current))
	return cloneTables(next), true
}

func (h *history) reset() {
	h.past = nil
	h.future = nil
}

func cloneTables(tables []models.Table) []models.Table {
	out := make([]models.Table, len(tables))
	copy(out, tables)
	return out
}
