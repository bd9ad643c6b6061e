package service

import (
	"context"

	"github.com/tabula-io/tabula/internal/model"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
	"github.com/tabula-io/tabula/internal/pkg/timeutil"
	"github.com/tabula-io/tabula/internal/repo"
)

type SavedViewService struct {
	views *repo.SavedViewRepo
}

func NewSavedViewService(views *repo.SavedViewRepo) *SavedViewService {
	return &SavedViewService{views: views}
}

type SavedViewCreateInput struct {
	Name          string
	TableName     string
	ViewType      string
	Filters       []model.Filter
	FilterMode    model.FilterMode
	GroupBy       string
	SearchTerm    string
	HiddenColumns []string
	ColumnOrder   []string
	ColumnWidths  map[string]int
	SortConfig    []model.SortEntry
}

func (s *SavedViewService) List(ctx context.Context, tableName string) ([]model.SavedView, error) {
	return s.views.List(ctx, tableName)
}

func (s *SavedViewService) Get(ctx context.Context, viewID string) (*model.SavedView, error) {
	return s.views.Get(ctx, viewID)
}

// Create validates before any storage access, then fills defaults for the
// fields the caller omitted. A fresh view always has mtime equal to ctime.
func (s *SavedViewService) Create(ctx context.Context, input SavedViewCreateInput) (*model.SavedView, error) {
	if input.Name == "" || input.TableName == "" {
		return nil, appErr.ErrInvalid
	}
	if input.ViewType == "" {
		input.ViewType = model.ViewTypeTable
	}
	if input.FilterMode == "" {
		input.FilterMode = model.FilterAnd
	}
	if input.Filters == nil {
		input.Filters = []model.Filter{}
	}
	if input.HiddenColumns == nil {
		input.HiddenColumns = []string{}
	}
	if input.ColumnOrder == nil {
		input.ColumnOrder = []string{}
	}
	if input.ColumnWidths == nil {
		input.ColumnWidths = map[string]int{}
	}
	if input.SortConfig == nil {
		input.SortConfig = []model.SortEntry{}
	}
	now := timeutil.NowUnix()
	view := &model.SavedView{
		ID:            newID(),
		Name:          input.Name,
		TableName:     input.TableName,
		ViewType:      input.ViewType,
		Filters:       input.Filters,
		FilterMode:    input.FilterMode,
		GroupBy:       input.GroupBy,
		SearchTerm:    input.SearchTerm,
		HiddenColumns: input.HiddenColumns,
		ColumnOrder:   input.ColumnOrder,
		ColumnWidths:  input.ColumnWidths,
		SortConfig:    input.SortConfig,
		Ctime:         now,
		Mtime:         now,
	}
	if err := s.views.Create(ctx, view); err != nil {
		return nil, err
	}
	return view, nil
}

// Update merges only the supplied fields and stamps a fresh mtime.
func (s *SavedViewService) Update(ctx context.Context, viewID string, patch model.SavedViewPatch) (*model.SavedView, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, appErr.ErrInvalid
	}
	if patch.IsZero() {
		return s.views.Get(ctx, viewID)
	}
	if err := s.views.Update(ctx, viewID, patch, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.views.Get(ctx, viewID)
}

func (s *SavedViewService) Delete(ctx context.Context, viewID string) error {
	return s.views.Delete(ctx, viewID)
}
