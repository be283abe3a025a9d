package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"floorplan/internal/floorplan/models"

	"github.com/google/uuid"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrations embed.FS

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Filter фильтр списка столов; пустые поля не ограничивают выборку.
type Filter struct {
	Section string
	Status  models.Status
}

const tableColumns = `id, table_number, capacity, status, shape, x_position, y_position,
        width, height, rotation, section, server_name, combined_group, created_at, updated_at`

// Init запускает миграции.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// List возвращает столы организации в порядке отрисовки.
func (r *Repository) List(ctx context.Context, orgID string, f Filter) ([]models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE org_id = ?`
	args := []any{orgID}
	if f.Section != "" {
		query += ` AND section = ?`
		args = append(args, f.Section)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []models.Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, orgID, id string) (*models.Table, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+tableColumns+`
        FROM restaurant_tables
        WHERE org_id = ? AND id = ?
    `, orgID, id)

	t, err := scanTable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Create вставляет стол в конец порядка отрисовки. Пустой ID заменяется на uuid.
func (r *Repository) Create(ctx context.Context, orgID string, t models.Table) (*models.Table, error) {
	return r.CreateAt(ctx, orgID, t, -1)
}

// CreateAt вставляет стол на позицию index в порядке отрисовки, сдвигая остальные вверх.
// index < 0 или за концом списка добавляет стол последним.
func (r *Repository) CreateAt(ctx context.Context, orgID string, t models.Table, index int) (*models.Table, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created, err := r.insert(ctx, tx, orgID, t, index)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// CreateMany вставляет набор столов одной транзакцией; replace удаляет существующие.
func (r *Repository) CreateMany(ctx context.Context, orgID string, tables []models.Table, replace bool) ([]models.Table, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE org_id = ?`, orgID); err != nil {
			return nil, fmt.Errorf("clear tables: %w", err)
		}
	}

	out := make([]models.Table, 0, len(tables))
	for _, t := range tables {
		created, err := r.insert(ctx, tx, orgID, t, -1)
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update перезаписывает стол целиком (last write wins).
func (r *Repository) Update(ctx context.Context, orgID string, t models.Table) (*models.Table, error) {
	t.UpdatedAt = r.timestamp()
	res, err := r.db.ExecContext(ctx, `
        UPDATE restaurant_tables
        SET table_number = ?, capacity = ?, status = ?, shape = ?, x_position = ?, y_position = ?,
            width = ?, height = ?, rotation = ?, section = ?, server_name = ?, combined_group = ?, updated_at = ?
        WHERE org_id = ? AND id = ?
    `,
		t.TableNumber, t.Capacity, string(t.Status), string(t.Shape), t.X, t.Y,
		t.Width, t.Height, t.Rotation, t.Section, t.ServerName, t.CombinedGroup, t.UpdatedAt,
		orgID, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update table: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	return expectAffected(res)
}

// SetGroup назначает combined_group набору столов в одной транзакции.
func (r *Repository) SetGroup(ctx context.Context, orgID string, ids []string, group string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := r.timestamp()
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `
            UPDATE restaurant_tables SET combined_group = ?, updated_at = ?
            WHERE org_id = ? AND id = ?
        `, group, now, orgID, id)
		if err != nil {
			return fmt.Errorf("set group: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return fmt.Errorf("table %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// ClearGroup снимает объединение; возвращает число затронутых столов.
func (r *Repository) ClearGroup(ctx context.Context, orgID, group string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE restaurant_tables SET combined_group = '', updated_at = ?
        WHERE org_id = ? AND combined_group = ?
    `, r.timestamp(), orgID, group)
	if err != nil {
		return 0, fmt.Errorf("clear group: %w", err)
	}
	return res.RowsAffected()
}

// ============================================================
// Helpers
// ============================================================

func (r *Repository) insert(ctx context.Context, tx *sql.Tx, orgID string, t models.Table, index int) (*models.Table, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := r.timestamp()
	t.CreatedAt = now
	t.UpdatedAt = now

	seq, err := seqAt(ctx, tx, orgID, index)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO restaurant_tables (id, org_id, seq, table_number, capacity, status, shape,
            x_position, y_position, width, height, rotation, section, server_name, combined_group,
            created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		t.ID, orgID, seq, t.TableNumber, t.Capacity, string(t.Status), string(t.Shape),
		t.X, t.Y, t.Width, t.Height, t.Rotation, t.Section, t.ServerName, t.CombinedGroup,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert table: %w", err)
	}
	return &t, nil
}

// seqAt освобождает seq под позицию index (0 = самый нижний стол).
func seqAt(ctx context.Context, tx *sql.Tx, orgID string, index int) (int64, error) {
	if index >= 0 {
		var seq int64
		err := tx.QueryRowContext(ctx, `
            SELECT seq FROM restaurant_tables WHERE org_id = ? ORDER BY seq LIMIT 1 OFFSET ?
        `, orgID, index).Scan(&seq)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, `
                UPDATE restaurant_tables SET seq = seq + 1 WHERE org_id = ? AND seq >= ?
            `, orgID, seq); err != nil {
				return 0, fmt.Errorf("shift seq: %w", err)
			}
			return seq, nil
		case !errors.Is(err, sql.ErrNoRows):
			return 0, fmt.Errorf("seq at %d: %w", index, err)
		}
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM restaurant_tables WHERE org_id = ?`, orgID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTable(s scanner) (*models.Table, error) {
	var t models.Table
	var status, shape string
	if err := s.Scan(&t.ID, &t.TableNumber, &t.Capacity, &status, &shape, &t.X, &t.Y,
		&t.Width, &t.Height, &t.Rotation, &t.Section, &t.ServerName, &t.CombinedGroup,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = models.Status(status)
	t.Shape = models.ShapeKind(shape)
	return &t, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
