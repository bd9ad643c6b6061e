package service

import (
	"context"
	"strconv"
	"time"

	"github.com/tabula-io/tabula/internal/model"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
	"github.com/tabula-io/tabula/internal/pkg/timeutil"
	"github.com/tabula-io/tabula/internal/repo"
)

// EntityService owns the configured table descriptors and the generic row
// storage behind them. Rows travel as flat documents; the id and the
// timestamps are merged in at the read boundary and stripped again before a
// write, so the stored data never duplicates its own key.
type EntityService struct {
	entities *repo.EntityRepo
	tables   map[string]model.Table
	order    []string
}

func NewEntityService(entities *repo.EntityRepo, tables []model.Table) *EntityService {
	indexed := make(map[string]model.Table, len(tables))
	order := make([]string, 0, len(tables))
	for _, tab := range tables {
		indexed[tab.Name] = tab
		order = append(order, tab.Name)
	}
	return &EntityService{entities: entities, tables: indexed, order: order}
}

func (s *EntityService) Tables() []model.Table {
	items := make([]model.Table, 0, len(s.order))
	for _, name := range s.order {
		items = append(items, s.tables[name])
	}
	return items
}

func (s *EntityService) Table(name string) (*model.Table, error) {
	tab, ok := s.tables[name]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &tab, nil
}

func (s *EntityService) ListRows(ctx context.Context, tableName string) ([]model.Row, error) {
	tab, err := s.Table(tableName)
	if err != nil {
		return nil, err
	}
	items, err := s.entities.ListByTable(ctx, tableName)
	if err != nil {
		return nil, err
	}
	rows := make([]model.Row, 0, len(items))
	for i := range items {
		rows = append(rows, mergeRow(tab, &items[i]))
	}
	return rows, nil
}

func (s *EntityService) CreateRow(ctx context.Context, tableName string, row model.Row) (model.Row, error) {
	tab, err := s.Table(tableName)
	if err != nil {
		return nil, err
	}
	id := row.ID(tab.KeyField())
	if id == "" {
		id = newID()
	}
	data := row.Clone()
	if data == nil {
		data = model.Row{}
	}
	delete(data, tab.KeyField())
	now := timeutil.NowUnix()
	item := &model.Entity{
		ID:        id,
		TableName: tableName,
		Data:      data,
		State:     repo.EntityStateNormal,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.entities.Create(ctx, item); err != nil {
		return nil, err
	}
	return mergeRow(tab, item), nil
}

// UpdateField patches a single field: read the row, set the value, bump
// mtime, write the whole document back. Last write wins. The returned row is
// the authoritative state after the patch.
func (s *EntityService) UpdateField(ctx context.Context, tableName, id, field string, value interface{}) (model.Row, error) {
	tab, err := s.Table(tableName)
	if err != nil {
		return nil, err
	}
	col, ok := tab.Column(field)
	if !ok || !col.Editable || field == tab.KeyField() {
		return nil, appErr.ErrInvalid
	}
	coerced, err := coerceValue(col, value)
	if err != nil {
		return nil, err
	}
	item, err := s.entities.Get(ctx, tableName, id)
	if err != nil {
		return nil, err
	}
	data := item.Data.Clone()
	if data == nil {
		data = model.Row{}
	}
	data[field] = coerced
	now := timeutil.NowUnix()
	if err := s.entities.UpdateData(ctx, tableName, id, data, now); err != nil {
		return nil, err
	}
	item.Data = data
	item.Mtime = now
	return mergeRow(tab, item), nil
}

func (s *EntityService) DeleteRow(ctx context.Context, tableName, id string) error {
	if _, err := s.Table(tableName); err != nil {
		return err
	}
	return s.entities.SoftDelete(ctx, tableName, id, timeutil.NowUnix())
}

// PurgeDeleted removes soft-deleted rows older than the retention window.
func (s *EntityService) PurgeDeleted(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour).Unix()
	return s.entities.PurgeDeletedBefore(ctx, cutoff)
}

func mergeRow(tab *model.Table, item *model.Entity) model.Row {
	row := item.Data.Clone()
	if row == nil {
		row = model.Row{}
	}
	row[tab.KeyField()] = item.ID
	row["ctime"] = item.Ctime
	row["mtime"] = item.Mtime
	return row
}

// coerceValue normalizes the incoming JSON value for the column type. Number
// columns coerce to float64; everything else passes through untouched.
func coerceValue(col model.Column, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if col.Type != model.ColumnNumber {
		return value, nil
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, appErr.ErrInvalid
		}
		return parsed, nil
	default:
		return nil, appErr.ErrInvalid
	}
}
