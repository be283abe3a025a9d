package repository

import (
	"context"
	"path/filepath"
	"testing"

	"floorplan/internal/floorplan/models"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "tables.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func table(number string, x float64) models.Table {
	return models.Table{
		TableNumber: number,
		Capacity:    4,
		Status:      models.StatusAvailable,
		Shape:       models.ShapeSquare,
		X:           x,
		Width:       60,
		Height:      60,
	}
}

func TestCreateListOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, "org", table("1", 0))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.CreatedAt)

	explicit := table("2", 100)
	explicit.ID = "fixed-id"
	_, err = repo.Create(ctx, "org", explicit)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "other", table("9", 0))
	require.NoError(t, err)

	list, err := repo.List(ctx, "org", Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, "fixed-id", list[1].ID)
	assert.Equal(t, models.ShapeSquare, list[1].Shape)
}

func TestCreateAtKeepsDrawPosition(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var ids []string
	for _, n := range []string{"1", "2", "3"} {
		created, err := repo.Create(ctx, "org", table(n, 0))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	removed, err := repo.GetByID(ctx, "org", ids[0])
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "org", ids[0]))

	_, err = repo.CreateAt(ctx, "org", *removed, 0)
	require.NoError(t, err)

	// за концом списка и отрицательный индекс кладут стол наверх
	_, err = repo.CreateAt(ctx, "org", table("4", 0), 10)
	require.NoError(t, err)
	_, err = repo.CreateAt(ctx, "org", table("5", 0), -1)
	require.NoError(t, err)
	// середина
	_, err = repo.CreateAt(ctx, "org", table("6", 0), 2)
	require.NoError(t, err)

	list, err := repo.List(ctx, "org", Filter{})
	require.NoError(t, err)
	var numbers []string
	for _, tbl := range list {
		numbers = append(numbers, tbl.TableNumber)
	}
	assert.Equal(t, []string{"1", "2", "6", "3", "4", "5"}, numbers)
	assert.Equal(t, ids[0], list[0].ID)
}

func TestListFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	patio := table("1", 0)
	patio.Section = "patio"
	_, err := repo.Create(ctx, "org", patio)
	require.NoError(t, err)

	busy := table("2", 100)
	busy.Status = models.StatusOccupied
	_, err = repo.Create(ctx, "org", busy)
	require.NoError(t, err)

	list, err := repo.List(ctx, "org", Filter{Section: "patio"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].TableNumber)

	list, err = repo.List(ctx, "org", Filter{Status: models.StatusOccupied})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].TableNumber)

	list, err = repo.List(ctx, "nobody", Filter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpdateDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "org", table("1", 0))
	require.NoError(t, err)

	created.X = 250
	created.Rotation = 90
	_, err = repo.Update(ctx, "org", *created)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "org", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.X)
	assert.Equal(t, 90.0, got.Rotation)

	_, err = repo.GetByID(ctx, "other", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "org", created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, "org", created.ID), ErrNotFound)

	ghost := table("x", 0)
	ghost.ID = "missing"
	_, err = repo.Update(ctx, "org", ghost)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateManyReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "org", table("old", 0))
	require.NoError(t, err)

	created, err := repo.CreateMany(ctx, "org", []models.Table{table("1", 0), table("2", 80)}, true)
	require.NoError(t, err)
	require.Len(t, created, 2)

	list, err := repo.List(ctx, "org", Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].TableNumber)

	// невалидная строка откатывает всю пачку
	bad := table("3", 0)
	bad.Width = 0
	_, err = repo.CreateMany(ctx, "org", []models.Table{table("ok", 0), bad}, false)
	require.Error(t, err)

	list, err = repo.List(ctx, "org", Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGroups(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, "org", table("1", 0))
	require.NoError(t, err)
	b, err := repo.Create(ctx, "org", table("2", 80))
	require.NoError(t, err)

	require.NoError(t, repo.SetGroup(ctx, "org", []string{a.ID, b.ID}, "g1"))
	got, err := repo.GetByID(ctx, "org", b.ID)
	require.NoError(t, err)
	assert.Equal(t, "g1", got.CombinedGroup)

	err = repo.SetGroup(ctx, "org", []string{a.ID, "missing"}, "g2")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err = repo.GetByID(ctx, "org", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "g1", got.CombinedGroup)

	n, err := repo.ClearGroup(ctx, "org", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.ClearGroup(ctx, "org", "g1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
