package explorer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabula-io/tabula/internal/model"
)

func newRenderedGrid(t *testing.T) *MemoryGrid {
	t.Helper()
	grid := NewMemoryGrid("id")
	require.NoError(t, grid.Render(personTable().Columns, filterRows()))
	return grid
}

func TestMemoryGridRejectsUnknownColumns(t *testing.T) {
	grid := newRenderedGrid(t)

	require.Error(t, grid.ApplyGroupBy("nope"))
	require.Error(t, grid.ApplySort([]model.SortEntry{{Field: "nope", Direction: model.SortAsc}}))
	require.Error(t, grid.ApplyColumnLayout([]string{"nope"}, nil, nil))
	require.Error(t, grid.ApplyColumnLayout(nil, []string{"nope"}, nil))
	require.Error(t, grid.ApplyColumnLayout(nil, nil, map[string]int{"nope": 100}))

	// a rejected call leaves the previous layout in place
	require.NoError(t, grid.ApplyColumnLayout([]string{"name", "id"}, []string{"email"}, map[string]int{"name": 200}))
	require.Error(t, grid.ApplyColumnLayout([]string{"nope"}, nil, nil))
	order, hidden, widths := grid.Layout()
	require.Equal(t, []string{"name", "id"}, order)
	require.Equal(t, []string{"email"}, hidden)
	require.Equal(t, map[string]int{"name": 200}, widths)
}

func TestMemoryGridBatchPaintsOnce(t *testing.T) {
	grid := newRenderedGrid(t)

	before := grid.Repaints()
	grid.BeginUpdate()
	require.NoError(t, grid.ApplyFilter(nil))
	require.NoError(t, grid.ApplyGroupBy("role"))
	require.NoError(t, grid.ApplySort([]model.SortEntry{{Field: "name", Direction: model.SortAsc}}))
	require.NoError(t, grid.ApplyColumnLayout(nil, []string{"email"}, nil))
	grid.EndUpdate()
	require.Equal(t, before+1, grid.Repaints())
}

func TestMemoryGridGroupsCarryCounts(t *testing.T) {
	grid := NewMemoryGrid("id")
	rows := []model.Row{
		{"id": "1", "role": "admin"},
		{"id": "2", "role": "viewer"},
		{"id": "3", "role": "admin"},
	}
	require.NoError(t, grid.Render(personTable().Columns, rows))

	require.Nil(t, grid.Groups())

	require.NoError(t, grid.ApplyGroupBy("role"))
	groups := grid.Groups()
	require.Len(t, groups, 2)
	require.Equal(t, "admin", groups[0].Key)
	require.Equal(t, 2, groups[0].Count)
	require.Equal(t, "viewer", groups[1].Key)
	require.Equal(t, 1, groups[1].Count)

	// grouping respects the active filter
	require.NoError(t, grid.ApplyFilter(func(row model.Row) bool { return row.ID("id") != "3" }))
	groups = grid.Groups()
	require.Len(t, groups, 2)
	require.Equal(t, 1, groups[0].Count)
}

func TestMemoryGridSetCellDoesNotEmit(t *testing.T) {
	grid := newRenderedGrid(t)

	var events []Event
	grid.Subscribe(func(ev Event) { events = append(events, ev) })

	require.NoError(t, grid.SetCell("1", "name", "Amara"))
	require.Empty(t, events)

	grid.FireEdit("1", "name", "Nia")
	require.Len(t, events, 1)
	edit, ok := events[0].(CellEditEvent)
	require.True(t, ok)
	require.Equal(t, "Amara", edit.OldValue)
	require.Equal(t, "Nia", edit.NewValue)

	grid.Subscribe(nil)
	grid.FireEdit("1", "name", "Zoe")
	require.Len(t, events, 1)
}

func TestMemoryGridRenderKeepsOwnCopies(t *testing.T) {
	grid := NewMemoryGrid("id")
	rows := []model.Row{{"id": "1", "name": "Amy"}}
	require.NoError(t, grid.Render(personTable().Columns, rows))

	rows[0]["name"] = "mutated"
	v, ok := grid.Value("1", "name")
	require.True(t, ok)
	require.Equal(t, "Amy", v)

	visible := grid.VisibleRows()
	visible[0]["name"] = "mutated again"
	v, _ = grid.Value("1", "name")
	require.Equal(t, "Amy", v)
}
