package explorer

import (
	"github.com/tabula-io/tabula/internal/model"
)

// Event is a notification surfaced by a grid widget: either a committed
// inline cell edit or a user-driven layout change.
type Event interface {
	gridEvent()
}

// CellEditEvent fires when the user commits an inline edit in the widget.
type CellEditEvent struct {
	RowID    string
	Field    string
	OldValue interface{}
	NewValue interface{}
}

func (CellEditEvent) gridEvent() {}

// LayoutEvent fires when the user drags a column to reorder it or resizes
// one. Order is the full column order after the move, nil when unchanged;
// Widths carries only the widths that changed.
type LayoutEvent struct {
	Order  []string
	Widths map[string]int
}

func (LayoutEvent) gridEvent() {}

// Grid is the capability set required of a rendering widget. Any grid
// implementation satisfying it is substitutable; the controller never
// depends on a concrete widget.
//
// A grid holds only a rendering copy of the data. It is never the source
// of truth for values, only for transient UI state such as scroll
// position and focus.
type Grid interface {
	// Render replaces the displayed collection. Filter, grouping,
	// layout and sort state survive a re-render.
	Render(columns []model.Column, rows []model.Row) error

	// ApplyFilter restricts the visible rows to those matching the
	// predicate. A nil predicate shows all rows. Scroll and selection
	// state must survive re-application.
	ApplyFilter(pred func(model.Row) bool) error

	// ApplyGroupBy re-partitions rows into collapsible groups keyed by
	// the field's value, each header showing the member count. An empty
	// field clears grouping.
	ApplyGroupBy(field string) error

	// ApplyColumnLayout reorders, hides and resizes columns without a
	// full re-render when possible.
	ApplyColumnLayout(order []string, hidden []string, widths map[string]int) error

	// ApplySort orders the visible rows by the given entries.
	ApplySort(entries []model.SortEntry) error

	// SetCell updates one displayed value. It must not re-emit an edit
	// event; only user-committed edits do.
	SetCell(rowID, field string, value interface{}) error

	// Subscribe registers the event sink. A nil handler detaches.
	Subscribe(fn func(Event))
}

// BatchUpdater is optionally implemented by grids that can coalesce a
// burst of imperative calls into one repaint. The adapter uses it when
// a whole view state is applied so the user never sees intermediate
// states.
type BatchUpdater interface {
	BeginUpdate()
	EndUpdate()
}
