package service_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabula-io/tabula/internal/model"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
	"github.com/tabula-io/tabula/internal/repo"
	"github.com/tabula-io/tabula/internal/service"
	"github.com/tabula-io/tabula/test/testutil"
)

func uniqueName(prefix string) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return prefix + "_" + hex.EncodeToString(buf)
}

func TestSavedViewServiceDefaultsAndMerge(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	views := service.NewSavedViewService(repo.NewSavedViewRepo(db))
	tableName := uniqueName("people")

	created, err := views.Create(context.Background(), service.SavedViewCreateInput{
		Name:      "active admins",
		TableName: tableName,
		Filters:   []model.Filter{{Field: "role", Op: model.OpEq, Value: "admin"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, model.ViewTypeTable, created.ViewType)
	require.Equal(t, model.FilterAnd, created.FilterMode)
	require.Equal(t, created.Ctime, created.Mtime)

	// omitted collections come back present and empty, never null
	fetched, err := views.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.HiddenColumns)
	require.Empty(t, fetched.HiddenColumns)
	require.NotNil(t, fetched.ColumnWidths)
	require.Empty(t, fetched.ColumnWidths)
	require.Len(t, fetched.Filters, 1)

	groupBy := "role"
	updated, err := views.Update(context.Background(), created.ID, model.SavedViewPatch{GroupBy: &groupBy})
	require.NoError(t, err)
	require.Equal(t, "role", updated.GroupBy)
	require.Equal(t, "active admins", updated.Name)
	require.Len(t, updated.Filters, 1)

	// an empty patch is a read, not a write
	unchanged, err := views.Update(context.Background(), created.ID, model.SavedViewPatch{})
	require.NoError(t, err)
	require.Equal(t, updated.Mtime, unchanged.Mtime)

	require.NoError(t, views.Delete(context.Background(), created.ID))
	_, err = views.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, views.Delete(context.Background(), created.ID), appErr.ErrNotFound)
}
