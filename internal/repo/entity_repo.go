package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/tabula-io/tabula/internal/model"
	"github.com/tabula-io/tabula/internal/pkg/dbutil"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
)

const (
	EntityStateNormal  = 1
	EntityStateDeleted = 2
)

var entityColumns = []string{"table_name", "id", "data", "state", "ctime", "mtime"}

// EntityRepo stores the rows of every logical table in one place, the
// row body as an opaque JSON document keyed by (table_name, id).
type EntityRepo struct {
	db *sql.DB
}

func NewEntityRepo(db *sql.DB) *EntityRepo {
	return &EntityRepo{db: db}
}

func (r *EntityRepo) ListByTable(ctx context.Context, tableName string) ([]model.Entity, error) {
	where := map[string]interface{}{
		"table_name": tableName,
		"state":      EntityStateNormal,
		"_orderby":   "ctime, id",
	}
	sqlStr, args, err := builder.BuildSelect("entities", where, entityColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Entity, 0)
	for rows.Next() {
		item, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *EntityRepo) Get(ctx context.Context, tableName, id string) (*model.Entity, error) {
	where := map[string]interface{}{
		"table_name": tableName,
		"id":         id,
		"state":      EntityStateNormal,
	}
	sqlStr, args, err := builder.BuildSelect("entities", where, entityColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	item, err := scanEntity(rows)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *EntityRepo) Create(ctx context.Context, item *model.Entity) error {
	payload, err := json.Marshal(item.Data)
	if err != nil {
		return fmt.Errorf("encode entity data: %w", err)
	}
	data := map[string]interface{}{
		"table_name": item.TableName,
		"id":         item.ID,
		"data":       string(payload),
		"state":      item.State,
		"ctime":      item.Ctime,
		"mtime":      item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("entities", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// UpdateData writes the full row document back. Single-field patches are
// read-modify-write at the service layer; the last write wins.
func (r *EntityRepo) UpdateData(ctx context.Context, tableName, id string, data model.Row, mtime int64) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode entity data: %w", err)
	}
	where := map[string]interface{}{
		"table_name": tableName,
		"id":         id,
		"state":      EntityStateNormal,
	}
	update := map[string]interface{}{
		"data":  string(payload),
		"mtime": mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("entities", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *EntityRepo) SoftDelete(ctx context.Context, tableName, id string, mtime int64) error {
	where := map[string]interface{}{
		"table_name": tableName,
		"id":         id,
		"state":      EntityStateNormal,
	}
	update := map[string]interface{}{
		"state": EntityStateDeleted,
		"mtime": mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("entities", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// PurgeDeletedBefore hard-deletes soft-deleted rows across all logical
// tables whose delete stamp is older than the cutoff.
func (r *EntityRepo) PurgeDeletedBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM entities WHERE state = $1 AND mtime < $2`
	res, err := r.db.ExecContext(ctx, query, EntityStateDeleted, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEntity(rows *sql.Rows) (model.Entity, error) {
	var (
		item    model.Entity
		payload string
	)
	if err := rows.Scan(&item.TableName, &item.ID, &payload, &item.State, &item.Ctime, &item.Mtime); err != nil {
		return model.Entity{}, err
	}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &item.Data); err != nil {
			return model.Entity{}, fmt.Errorf("entity %s/%s data: %w", item.TableName, item.ID, err)
		}
	}
	return item, nil
}
