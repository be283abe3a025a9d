package editor

import (
	"testing"

	"floorplan/internal/floorplan/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryDepth(t *testing.T) {
	h := newHistory(2)
	s0 := []models.Table{square("a", 0, 0)}
	s1 := []models.Table{square("a", 10, 0)}
	s2 := []models.Table{square("a", 20, 0)}
	cur := []models.Table{square("a", 30, 0)}

	h.record(s0)
	h.record(s1)
	h.record(s2)

	got, ok := h.undo(cur)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(s2, got))
	got, ok = h.undo(got)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(s1, got))
	_, ok = h.undo(got)
	assert.False(t, ok, "oldest snapshot dropped")
}

func TestHistorySnapshotsAreCopies(t *testing.T) {
	h := newHistory(0)
	live := []models.Table{square("a", 0, 0)}
	h.record(live)
	live[0].X = 999

	got, ok := h.undo(live)
	require.True(t, ok)
	assert.Equal(t, 0.0, got[0].X)

	redo, ok := h.redo(got)
	require.True(t, ok)
	assert.Equal(t, 999.0, redo[0].X)
}

func TestDiffCommands(t *testing.T) {
	before := []models.Table{square("a", 0, 0), square("b", 100, 0)}
	moved := square("a", 40, 0)
	after := []models.Table{moved, square("c", 200, 0)}

	cmds := diffCommands(before, after)
	require.Len(t, cmds, 3)

	assert.Equal(t, CommandDelete, cmds[0].Kind)
	assert.Equal(t, "b", cmds[0].TableID)
	assert.Equal(t, 1, cmds[0].Index)

	assert.Equal(t, CommandCreate, cmds[1].Kind)
	assert.Equal(t, "c", cmds[1].TableID)

	assert.Equal(t, CommandUpdate, cmds[2].Kind)
	require.NotNil(t, cmds[2].Patch.X)
	assert.Equal(t, 40.0, *cmds[2].Patch.X)
	assert.Nil(t, cmds[2].Patch.Y)

	assert.Empty(t, diffCommands(before, before))
}

func TestRollbackDeleteClampsIndex(t *testing.T) {
	gone := square("z", 0, 0)
	got := rollback([]models.Table{square("a", 0, 0)}, deleteCommand(gone, 5))
	require.Len(t, got, 2)
	assert.Equal(t, "z", got[1].ID)

	// уже вернулся с сервера: второй раз не вставляется
	got = rollback(got, deleteCommand(gone, 0))
	assert.Len(t, got, 2)
}

func TestParseTool(t *testing.T) {
	tool, err := ParseTool("add:oval")
	require.NoError(t, err)
	assert.Equal(t, AddTableTool{Shape: models.ShapeOval}, tool)

	tool, err = ParseTool("add")
	require.NoError(t, err)
	assert.Equal(t, AddTableTool{Shape: models.ShapeSquare}, tool)

	tool, err = ParseTool("delete")
	require.NoError(t, err)
	assert.Equal(t, "delete", tool.String())

	_, err = ParseTool("add:hexagon")
	assert.Error(t, err)
	_, err = ParseTool("lasso")
	assert.Error(t, err)
}
