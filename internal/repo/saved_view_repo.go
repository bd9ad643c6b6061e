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

var savedViewColumns = []string{
	"id", "name", "table_name", "view_type", "filters", "filter_mode",
	"group_by", "search_term", "hidden_columns", "column_order",
	"column_widths", "sort_config", "ctime", "mtime",
}

type SavedViewRepo struct {
	db *sql.DB
}

func NewSavedViewRepo(db *sql.DB) *SavedViewRepo {
	return &SavedViewRepo{db: db}
}

func (r *SavedViewRepo) List(ctx context.Context, tableName string) ([]model.SavedView, error) {
	where := map[string]interface{}{
		"_orderby": "mtime desc",
	}
	if tableName != "" {
		where["table_name"] = tableName
	}
	sqlStr, args, err := builder.BuildSelect("saved_views", where, savedViewColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SavedView, 0)
	for rows.Next() {
		item, err := scanSavedView(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SavedViewRepo) Get(ctx context.Context, id string) (*model.SavedView, error) {
	sqlStr, args, err := builder.BuildSelect("saved_views", map[string]interface{}{"id": id}, savedViewColumns)
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
	item, err := scanSavedView(rows)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *SavedViewRepo) Create(ctx context.Context, item *model.SavedView) error {
	data := map[string]interface{}{
		"id":             item.ID,
		"name":           item.Name,
		"table_name":     item.TableName,
		"view_type":      item.ViewType,
		"filters":        encodeList(item.Filters),
		"filter_mode":    string(item.FilterMode),
		"group_by":       nullableString(item.GroupBy),
		"search_term":    nullableString(item.SearchTerm),
		"hidden_columns": encodeList(item.HiddenColumns),
		"column_order":   encodeList(item.ColumnOrder),
		"column_widths":  encodeMap(item.ColumnWidths),
		"sort_config":    encodeList(item.SortConfig),
		"ctime":          item.Ctime,
		"mtime":          item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("saved_views", []map[string]interface{}{data})
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

// Update merges only the fields carried by the patch and stamps the new
// mtime. Absent fields keep their stored values.
func (r *SavedViewRepo) Update(ctx context.Context, id string, patch model.SavedViewPatch, mtime int64) error {
	update := map[string]interface{}{
		"mtime": mtime,
	}
	if patch.Name != nil {
		update["name"] = *patch.Name
	}
	if patch.ViewType != nil {
		update["view_type"] = *patch.ViewType
	}
	if patch.Filters != nil {
		update["filters"] = encodeList(*patch.Filters)
	}
	if patch.FilterMode != nil {
		update["filter_mode"] = string(*patch.FilterMode)
	}
	if patch.GroupBy != nil {
		update["group_by"] = nullableString(*patch.GroupBy)
	}
	if patch.SearchTerm != nil {
		update["search_term"] = nullableString(*patch.SearchTerm)
	}
	if patch.HiddenColumns != nil {
		update["hidden_columns"] = encodeList(*patch.HiddenColumns)
	}
	if patch.ColumnOrder != nil {
		update["column_order"] = encodeList(*patch.ColumnOrder)
	}
	if patch.ColumnWidths != nil {
		update["column_widths"] = encodeMap(*patch.ColumnWidths)
	}
	if patch.SortConfig != nil {
		update["sort_config"] = encodeList(*patch.SortConfig)
	}
	sqlStr, args, err := builder.BuildUpdate("saved_views", map[string]interface{}{"id": id}, update)
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

func (r *SavedViewRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := builder.BuildDelete("saved_views", map[string]interface{}{"id": id})
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

func scanSavedView(rows *sql.Rows) (model.SavedView, error) {
	var (
		item                 model.SavedView
		filterMode           string
		groupBy, searchTerm  sql.NullString
		filters, hidden      string
		order, widths, sorts string
	)
	if err := rows.Scan(
		&item.ID, &item.Name, &item.TableName, &item.ViewType, &filters, &filterMode,
		&groupBy, &searchTerm, &hidden, &order, &widths, &sorts,
		&item.Ctime, &item.Mtime,
	); err != nil {
		return model.SavedView{}, err
	}
	item.FilterMode = model.FilterMode(filterMode)
	item.GroupBy = groupBy.String
	item.SearchTerm = searchTerm.String
	if err := decodeJSON(filters, &item.Filters); err != nil {
		return model.SavedView{}, fmt.Errorf("saved view %s filters: %w", item.ID, err)
	}
	if err := decodeJSON(hidden, &item.HiddenColumns); err != nil {
		return model.SavedView{}, fmt.Errorf("saved view %s hidden_columns: %w", item.ID, err)
	}
	if err := decodeJSON(order, &item.ColumnOrder); err != nil {
		return model.SavedView{}, fmt.Errorf("saved view %s column_order: %w", item.ID, err)
	}
	if err := decodeJSON(widths, &item.ColumnWidths); err != nil {
		return model.SavedView{}, fmt.Errorf("saved view %s column_widths: %w", item.ID, err)
	}
	if err := decodeJSON(sorts, &item.SortConfig); err != nil {
		return model.SavedView{}, fmt.Errorf("saved view %s sort_config: %w", item.ID, err)
	}
	return item, nil
}

func encodeList(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

func encodeMap(v map[string]int) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeJSON(raw string, out interface{}) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
