package repo_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabula-io/tabula/internal/model"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
	"github.com/tabula-io/tabula/internal/pkg/timeutil"
	"github.com/tabula-io/tabula/internal/repo"
	"github.com/tabula-io/tabula/test/testutil"
)

// uniqueID keeps runs against a shared test database from colliding.
func uniqueID(prefix string) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return prefix + "_" + hex.EncodeToString(buf)
}

func TestSavedViewRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	views := repo.NewSavedViewRepo(db)
	now := timeutil.NowUnix()
	view := &model.SavedView{
		ID:            uniqueID("view"),
		Name:          "active admins",
		TableName:     uniqueID("people"),
		ViewType:      model.ViewTypeTable,
		Filters:       []model.Filter{{Field: "role", Op: model.OpEq, Value: "admin"}},
		FilterMode:    model.FilterOr,
		GroupBy:       "role",
		SearchTerm:    "corp",
		HiddenColumns: []string{"email"},
		ColumnOrder:   []string{"name", "role"},
		ColumnWidths:  map[string]int{"name": 240},
		SortConfig:    []model.SortEntry{{Field: "name", Direction: model.SortAsc}},
		Ctime:         now,
		Mtime:         now,
	}
	require.NoError(t, views.Create(context.Background(), view))
	require.ErrorIs(t, views.Create(context.Background(), view), appErr.ErrConflict)

	fetched, err := views.Get(context.Background(), view.ID)
	require.NoError(t, err)
	require.Equal(t, view.Name, fetched.Name)
	require.Equal(t, view.Filters, fetched.Filters)
	require.Equal(t, model.FilterOr, fetched.FilterMode)
	require.Equal(t, "role", fetched.GroupBy)
	require.Equal(t, "corp", fetched.SearchTerm)
	require.Equal(t, view.HiddenColumns, fetched.HiddenColumns)
	require.Equal(t, view.ColumnOrder, fetched.ColumnOrder)
	require.Equal(t, view.ColumnWidths, fetched.ColumnWidths)
	require.Equal(t, view.SortConfig, fetched.SortConfig)
	require.Equal(t, now, fetched.Ctime)

	_, err = views.Get(context.Background(), uniqueID("missing"))
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// a patch touches only the carried fields
	name := "renamed"
	term := ""
	patch := model.SavedViewPatch{Name: &name, SearchTerm: &term}
	require.NoError(t, views.Update(context.Background(), view.ID, patch, now+5))

	fetched, err = views.Get(context.Background(), view.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", fetched.Name)
	require.Empty(t, fetched.SearchTerm)
	require.Equal(t, view.Filters, fetched.Filters)
	require.Equal(t, view.HiddenColumns, fetched.HiddenColumns)
	require.Equal(t, now, fetched.Ctime)
	require.Equal(t, now+5, fetched.Mtime)

	err = views.Update(context.Background(), uniqueID("missing"), patch, now)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, views.Delete(context.Background(), view.ID))
	_, err = views.Get(context.Background(), view.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, views.Delete(context.Background(), view.ID), appErr.ErrNotFound)
}

func TestSavedViewRepoListNewestFirst(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	views := repo.NewSavedViewRepo(db)
	tableName := uniqueID("people")
	base := timeutil.NowUnix()
	for i, name := range []string{"oldest", "middle", "newest"} {
		view := &model.SavedView{
			ID:         uniqueID("view"),
			Name:       name,
			TableName:  tableName,
			ViewType:   model.ViewTypeTable,
			FilterMode: model.FilterAnd,
			Ctime:      base,
			Mtime:      base + int64(i),
		}
		require.NoError(t, views.Create(context.Background(), view))
	}

	items, err := views.List(context.Background(), tableName)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "newest", items[0].Name)
	require.Equal(t, "middle", items[1].Name)
	require.Equal(t, "oldest", items[2].Name)

	items, err = views.List(context.Background(), uniqueID("orders"))
	require.NoError(t, err)
	require.Empty(t, items)
}
