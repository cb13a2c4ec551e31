package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jacentio/orchard/store"
)

const (
	containerColumns    = `id, owner_id, name, color, icon, sort_order, created_at, version`
	subContainerColumns = `id, container_id, owner_id, name, color, icon, sort_order, created_at, version`
	itemColumns         = `id, container_id, sub_container_id, owner_id, title, notes, status, sort_order, created_at, completed_at, version`
)

type transaction struct {
	tx       *sql.Tx
	driver   string
	readOnly bool
}

func (t *transaction) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if t.readOnly {
		return nil, store.ErrReadOnly
	}
	return t.tx.ExecContext(ctx, rebind(t.driver, query), args...)
}

func (t *transaction) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, rebind(t.driver, query), args...)
}

func (t *transaction) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, rebind(t.driver, query), args...)
}

// insert runs an INSERT ... ON CONFLICT DO NOTHING and maps a skipped row to ErrAlreadyExists.
func (t *transaction) insert(ctx context.Context, query string, args ...any) error {
	result, err := t.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

// update runs a version-conditioned UPDATE and maps a missed row to ErrConcurrentModification.
func (t *transaction) update(ctx context.Context, query string, args ...any) error {
	result, err := t.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrConcurrentModification
	}
	return nil
}

// remove runs a version-conditioned DELETE. A missed row is ErrNotFound when
// the record is gone and ErrConcurrentModification when its version moved.
func (t *transaction) remove(ctx context.Context, table, id string, version int64) error {
	result, err := t.exec(ctx, `DELETE FROM `+table+` WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var count int
	if err := t.queryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return store.ErrConcurrentModification
}

// --- Containers ---

func (t *transaction) Container(ctx context.Context, id string) (store.Container, error) {
	row := t.queryRow(ctx, `SELECT `+containerColumns+` FROM containers WHERE id = ?`, id)
	c, err := scanContainer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Container{}, store.ErrNotFound
	}
	if err != nil {
		return store.Container{}, fmt.Errorf("failed to get container: %w", err)
	}
	return c, nil
}

func (t *transaction) Containers(ctx context.Context, ownerID string) ([]store.Container, error) {
	rows, err := t.query(ctx, `SELECT `+containerColumns+` FROM containers WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query containers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan container: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *transaction) PutContainer(ctx context.Context, c store.Container) error {
	var err error
	if c.Version == 0 {
		err = t.insert(ctx, `
			INSERT INTO containers (`+containerColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT (id) DO NOTHING`,
			c.ID, c.OwnerID, c.Name, c.Color, c.Icon, c.Order, c.CreatedAt.UnixMilli())
	} else {
		err = t.update(ctx, `
			UPDATE containers
			SET owner_id = ?, name = ?, color = ?, icon = ?, sort_order = ?, created_at = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			c.OwnerID, c.Name, c.Color, c.Icon, c.Order, c.CreatedAt.UnixMilli(), c.ID, c.Version)
	}
	return wrapWrite("container", err)
}

func (t *transaction) DeleteContainer(ctx context.Context, c store.Container) error {
	return t.remove(ctx, "containers", c.ID, c.Version)
}

// --- Sub-containers ---

func (t *transaction) SubContainer(ctx context.Context, id string) (store.SubContainer, error) {
	row := t.queryRow(ctx, `SELECT `+subContainerColumns+` FROM sub_containers WHERE id = ?`, id)
	s, err := scanSubContainer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.SubContainer{}, store.ErrNotFound
	}
	if err != nil {
		return store.SubContainer{}, fmt.Errorf("failed to get sub-container: %w", err)
	}
	return s, nil
}

func (t *transaction) SubContainers(ctx context.Context, containerID string) ([]store.SubContainer, error) {
	rows, err := t.query(ctx, `SELECT `+subContainerColumns+` FROM sub_containers WHERE container_id = ?`, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-containers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.SubContainer
	for rows.Next() {
		s, err := scanSubContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sub-container: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (t *transaction) PutSubContainer(ctx context.Context, s store.SubContainer) error {
	var err error
	if s.Version == 0 {
		err = t.insert(ctx, `
			INSERT INTO sub_containers (`+subContainerColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT (id) DO NOTHING`,
			s.ID, s.ContainerID, s.OwnerID, s.Name, s.Color, s.Icon, s.Order, s.CreatedAt.UnixMilli())
	} else {
		err = t.update(ctx, `
			UPDATE sub_containers
			SET container_id = ?, owner_id = ?, name = ?, color = ?, icon = ?, sort_order = ?, created_at = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			s.ContainerID, s.OwnerID, s.Name, s.Color, s.Icon, s.Order, s.CreatedAt.UnixMilli(), s.ID, s.Version)
	}
	return wrapWrite("sub-container", err)
}

func (t *transaction) DeleteSubContainer(ctx context.Context, s store.SubContainer) error {
	return t.remove(ctx, "sub_containers", s.ID, s.Version)
}

// --- Items ---

func (t *transaction) Item(ctx context.Context, id string) (store.Item, error) {
	row := t.queryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Item{}, store.ErrNotFound
	}
	if err != nil {
		return store.Item{}, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

func (t *transaction) Items(ctx context.Context, containerID string) ([]store.Item, error) {
	rows, err := t.query(ctx, `SELECT `+itemColumns+` FROM items WHERE container_id = ?`, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *transaction) PutItem(ctx context.Context, it store.Item) error {
	var err error
	if it.Version == 0 {
		err = t.insert(ctx, `
			INSERT INTO items (`+itemColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT (id) DO NOTHING`,
			it.ID, it.ContainerID, nullString(it.SubContainerID), it.OwnerID, it.Title, nullString(it.Notes),
			string(it.Status), it.Order, it.CreatedAt.UnixMilli(), nullMillis(it.CompletedAt))
	} else {
		err = t.update(ctx, `
			UPDATE items
			SET container_id = ?, sub_container_id = ?, owner_id = ?, title = ?, notes = ?, status = ?,
			    sort_order = ?, created_at = ?, completed_at = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			it.ContainerID, nullString(it.SubContainerID), it.OwnerID, it.Title, nullString(it.Notes), string(it.Status),
			it.Order, it.CreatedAt.UnixMilli(), nullMillis(it.CompletedAt), it.ID, it.Version)
	}
	return wrapWrite("item", err)
}

func (t *transaction) DeleteItem(ctx context.Context, it store.Item) error {
	return t.remove(ctx, "items", it.ID, it.Version)
}

// --- Scanning helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func scanContainer(row scanner) (store.Container, error) {
	var c store.Container
	var created int64
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Icon, &c.Order, &created, &c.Version); err != nil {
		return store.Container{}, err
	}
	c.CreatedAt = time.UnixMilli(created).UTC()
	return c, nil
}

func scanSubContainer(row scanner) (store.SubContainer, error) {
	var s store.SubContainer
	var created int64
	if err := row.Scan(&s.ID, &s.ContainerID, &s.OwnerID, &s.Name, &s.Color, &s.Icon, &s.Order, &created, &s.Version); err != nil {
		return store.SubContainer{}, err
	}
	s.CreatedAt = time.UnixMilli(created).UTC()
	return s, nil
}

func scanItem(row scanner) (store.Item, error) {
	var it store.Item
	var subContainerID, notes sql.NullString
	var status string
	var created int64
	var completed sql.NullInt64
	if err := row.Scan(
		&it.ID, &it.ContainerID, &subContainerID, &it.OwnerID, &it.Title, &notes,
		&status, &it.Order, &created, &completed, &it.Version,
	); err != nil {
		return store.Item{}, err
	}
	it.SubContainerID = subContainerID.String
	it.Notes = notes.String
	it.Status = store.Status(status)
	it.CreatedAt = time.UnixMilli(created).UTC()
	if completed.Valid {
		at := time.UnixMilli(completed.Int64).UTC()
		it.CompletedAt = &at
	}
	return it, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func wrapWrite(kind string, err error) error {
	if err == nil || errors.Is(err, store.ErrAlreadyExists) ||
		errors.Is(err, store.ErrConcurrentModification) || errors.Is(err, store.ErrReadOnly) {
		return err
	}
	return fmt.Errorf("failed to write %s: %w", kind, err)
}
