package explorer

import (
	"sort"

	"github.com/tabula-io/tabula/internal/model"
)

// SortRows stable-sorts rows in place by the given entries, first entry
// most significant. A row with a nil value for a sort field goes after
// every row with a value, whichever the direction.
func SortRows(rows []model.Row, entries []model.SortEntry) {
	if len(entries) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, entry := range entries {
			c := compareCells(rows[i][entry.Field], rows[j][entry.Field], entry.Direction)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareCells(a, b interface{}, direction model.SortDirection) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := compareValues(a, b)
	if direction == model.SortDesc {
		c = -c
	}
	return c
}
