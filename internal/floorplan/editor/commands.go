package editor

import (
	"context"
	"fmt"

	"floorplan/internal/floorplan/models"
)

// ============================================================
// Commands
// ============================================================

type CommandKind string

const (
	CommandCreate CommandKind = "create"
	CommandUpdate CommandKind = "update"
	CommandDelete CommandKind = "delete"
)

// Command одна правка, отправляемая в API.
// Prev хранит стол до правки (для update и delete), Index его место в порядке отрисовки;
// create с Index < 0 добавляет стол наверх.
type Command struct {
	Kind    CommandKind
	TableID string
	Table   models.Table
	Patch   models.TablePatch
	Prev    models.Table
	Index   int
}

func (c Command) String() string {
	return fmt.Sprintf("%s %s", c.Kind, c.TableID)
}

func createCommand(t models.Table, index int) Command {
	return Command{Kind: CommandCreate, TableID: t.ID, Table: t, Index: index}
}

func updateCommand(prev, next models.Table) Command {
	return Command{Kind: CommandUpdate, TableID: next.ID, Table: next, Patch: models.Diff(prev, next), Prev: prev}
}

func deleteCommand(prev models.Table, index int) Command {
	return Command{Kind: CommandDelete, TableID: prev.ID, Prev: prev, Index: index}
}

// Persister зеркалит правки во внешний API.
type Persister interface {
	// CreateTable вставляет стол на позицию index в порядке отрисовки; index < 0 добавляет в конец.
	CreateTable(ctx context.Context, t models.Table, index int) (*models.Table, error)
	UpdateTable(ctx context.Context, id string, patch models.TablePatch) (*models.Table, error)
	DeleteTable(ctx context.Context, id string) error
}

// Loader перечитывает список столов целиком.
type Loader interface {
	ListTables(ctx context.Context) ([]models.Table, error)
}

func execute(ctx context.Context, p Persister, cmd Command) error {
	switch cmd.Kind {
	case CommandCreate:
		_, err := p.CreateTable(ctx, cmd.Table, cmd.Index)
		return err
	case CommandUpdate:
		_, err := p.UpdateTable(ctx, cmd.TableID, cmd.Patch)
		return err
	case CommandDelete:
		return p.DeleteTable(ctx, cmd.TableID)
	}
	return fmt.Errorf("unknown command kind %q", cmd.Kind)
}

// diffCommands переводит разницу между двумя снимками в команды:
// удаления, затем создания, затем обновления.
func diffCommands(before, after []models.Table) []Command {
	inAfter := make(map[string]models.Table, len(after))
	for _, t := range after {
		inAfter[t.ID] = t
	}
	inBefore := make(map[string]models.Table, len(before))
	for _, t := range before {
		inBefore[t.ID] = t
	}

	var cmds []Command
	for i, t := range before {
		if _, ok := inAfter[t.ID]; !ok {
			cmds = append(cmds, deleteCommand(t, i))
		}
	}
	for i, t := range after {
		if _, ok := inBefore[t.ID]; !ok {
			cmds = append(cmds, createCommand(t, i))
		}
	}
	for _, t := range after {
		prev, ok := inBefore[t.ID]
		if !ok {
			continue
		}
		if cmd := updateCommand(prev, t); !cmd.Patch.Empty() {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// ============================================================
// Rollback
// ============================================================

// rollback возвращает локальный список к состоянию до неудачной команды.
func rollback(tables []models.Table, cmd Command) []models.Table {
	switch cmd.Kind {
	case CommandCreate:
		if i := indexOf(tables, cmd.TableID); i >= 0 {
			return append(tables[:i], tables[i+1:]...)
		}
	case CommandUpdate:
		if i := indexOf(tables, cmd.TableID); i >= 0 {
			// откатываются только поля из патча, более поздние правки остаются
			revert := models.Diff(cmd.Table, cmd.Prev)
			cur := tables[i]
			restoreFields(&cur, cmd.Patch, revert)
			tables[i] = cur
		}
	case CommandDelete:
		if indexOf(tables, cmd.TableID) >= 0 {
			return tables
		}
		idx := cmd.Index
		if idx < 0 || idx > len(tables) {
			idx = len(tables)
		}
		tables = append(tables, models.Table{})
		copy(tables[idx+1:], tables[idx:])
		tables[idx] = cmd.Prev
	}
	return tables
}

// restoreFields возвращает prev-значения тех полей, что были в патче.
func restoreFields(t *models.Table, applied, revert models.TablePatch) {
	var p models.TablePatch
	if applied.TableNumber != nil {
		p.TableNumber = revert.TableNumber
	}
	if applied.Capacity != nil {
		p.Capacity = revert.Capacity
	}
	if applied.Status != nil {
		p.Status = revert.Status
	}
	if applied.Shape != nil {
		p.Shape = revert.Shape
	}
	if applied.X != nil {
		p.X = revert.X
	}
	if applied.Y != nil {
		p.Y = revert.Y
	}
	if applied.Width != nil {
		p.Width = revert.Width
	}
	if applied.Height != nil {
		p.Height = revert.Height
	}
	if applied.Rotation != nil {
		p.Rotation = revert.Rotation
	}
	if applied.Section != nil {
		p.Section = revert.Section
	}
	if applied.ServerName != nil {
		p.ServerName = revert.ServerName
	}
	p.Apply(t)
}

func indexOf(tables []models.Table, id string) int {
	for i, t := range tables {
		if t.ID == id {
			return i
		}
	}
	return -1
}
