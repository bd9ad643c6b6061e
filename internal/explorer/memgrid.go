package explorer

import (
	"fmt"
	"sync"

	"github.com/tabula-io/tabula/internal/model"
)

// Group is one partition of the visible rows when grouping is active.
type Group struct {
	Key   string
	Count int
	Rows  []model.Row
}

// MemoryGrid is a headless Grid: it keeps the contract a browser widget
// would (rendering copies, rejection of unknown fields, repaint
// coalescing) without drawing anything. It backs tests and server-side
// evaluation of a view.
type MemoryGrid struct {
	mu       sync.Mutex
	idField  string
	columns  []model.Column
	fields   map[string]struct{}
	rows     []model.Row
	index    map[string]int
	pred     func(model.Row) bool
	groupBy  string
	order    []string
	hidden   []string
	widths   map[string]int
	sorts    []model.SortEntry
	handler  func(Event)
	batch    int
	repaints int
}

func NewMemoryGrid(idField string) *MemoryGrid {
	return &MemoryGrid{
		idField: idField,
		fields:  make(map[string]struct{}),
		index:   make(map[string]int),
		widths:  make(map[string]int),
	}
}

func (g *MemoryGrid) Render(columns []model.Column, rows []model.Row) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.columns = append([]model.Column(nil), columns...)
	g.fields = make(map[string]struct{}, len(columns))
	for _, col := range columns {
		g.fields[col.Field] = struct{}{}
	}
	g.rows = make([]model.Row, 0, len(rows))
	g.index = make(map[string]int, len(rows))
	for _, row := range rows {
		copied := row.Clone()
		g.index[copied.ID(g.idField)] = len(g.rows)
		g.rows = append(g.rows, copied)
	}
	g.repaintLocked()
	return nil
}

func (g *MemoryGrid) ApplyFilter(pred func(model.Row) bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pred = pred
	g.repaintLocked()
	return nil
}

func (g *MemoryGrid) ApplyGroupBy(field string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if field != "" {
		if _, ok := g.fields[field]; !ok {
			return fmt.Errorf("unknown column %q", field)
		}
	}
	g.groupBy = field
	g.repaintLocked()
	return nil
}

func (g *MemoryGrid) ApplyColumnLayout(order []string, hidden []string, widths map[string]int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, field := range order {
		if _, ok := g.fields[field]; !ok {
			return fmt.Errorf("unknown column %q in order", field)
		}
	}
	for _, field := range hidden {
		if _, ok := g.fields[field]; !ok {
			return fmt.Errorf("unknown column %q in hidden set", field)
		}
	}
	for field := range widths {
		if _, ok := g.fields[field]; !ok {
			return fmt.Errorf("unknown column %q in width map", field)
		}
	}
	g.order = append([]string(nil), order...)
	g.hidden = append([]string(nil), hidden...)
	g.widths = make(map[string]int, len(widths))
	for field, w := range widths {
		g.widths[field] = w
	}
	g.repaintLocked()
	return nil
}

func (g *MemoryGrid) ApplySort(entries []model.SortEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, entry := range entries {
		if _, ok := g.fields[entry.Field]; !ok {
			return fmt.Errorf("unknown column %q in sort", entry.Field)
		}
	}
	g.sorts = append([]model.SortEntry(nil), entries...)
	g.repaintLocked()
	return nil
}

func (g *MemoryGrid) SetCell(rowID, field string, value interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.index[rowID]
	if !ok {
		return fmt.Errorf("unknown row %q", rowID)
	}
	g.rows[idx][field] = value
	g.repaintLocked()
	return nil
}

func (g *MemoryGrid) Subscribe(fn func(Event)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = fn
}

func (g *MemoryGrid) BeginUpdate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.batch++
}

func (g *MemoryGrid) EndUpdate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.batch > 0 {
		g.batch--
	}
	if g.batch == 0 {
		g.repaints++
	}
}

func (g *MemoryGrid) repaintLocked() {
	if g.batch == 0 {
		g.repaints++
	}
}

// Repaints counts completed paint passes; a batched update contributes
// exactly one.
func (g *MemoryGrid) Repaints() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.repaints
}

// VisibleRows applies the active filter and sort and returns copies.
func (g *MemoryGrid) VisibleRows() []model.Row {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visibleLocked()
}

func (g *MemoryGrid) visibleLocked() []model.Row {
	out := make([]model.Row, 0, len(g.rows))
	for _, row := range g.rows {
		if g.pred != nil && !g.pred(row) {
			continue
		}
		out = append(out, row.Clone())
	}
	SortRows(out, g.sorts)
	return out
}

// Groups partitions the visible rows by the active grouping key in
// first-seen order; nil when grouping is off.
func (g *MemoryGrid) Groups() []Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groupBy == "" {
		return nil
	}
	visible := g.visibleLocked()
	slot := make(map[string]int)
	groups := make([]Group, 0)
	for _, row := range visible {
		key := stringify(row[g.groupBy])
		i, ok := slot[key]
		if !ok {
			i = len(groups)
			slot[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Rows = append(groups[i].Rows, row)
		groups[i].Count++
	}
	return groups
}

// Layout reports the current column order, hidden set and width map.
func (g *MemoryGrid) Layout() ([]string, []string, map[string]int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	widths := make(map[string]int, len(g.widths))
	for field, w := range g.widths {
		widths[field] = w
	}
	return append([]string(nil), g.order...), append([]string(nil), g.hidden...), widths
}

// Value reads one displayed cell.
func (g *MemoryGrid) Value(rowID, field string) (interface{}, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.index[rowID]
	if !ok {
		return nil, false
	}
	value, ok := g.rows[idx][field]
	return value, ok
}

// FireEdit simulates a user committing an inline edit: the widget shows
// the value immediately and emits the edit event.
func (g *MemoryGrid) FireEdit(rowID, field string, value interface{}) {
	g.mu.Lock()
	idx, ok := g.index[rowID]
	if !ok {
		g.mu.Unlock()
		return
	}
	old := g.rows[idx][field]
	g.rows[idx][field] = value
	handler := g.handler
	g.mu.Unlock()
	if handler != nil {
		handler(CellEditEvent{RowID: rowID, Field: field, OldValue: old, NewValue: value})
	}
}

// FireLayout simulates a user dragging or resizing columns.
func (g *MemoryGrid) FireLayout(order []string, widths map[string]int) {
	g.mu.Lock()
	if order != nil {
		g.order = append([]string(nil), order...)
	}
	for field, w := range widths {
		g.widths[field] = w
	}
	handler := g.handler
	g.mu.Unlock()
	if handler != nil {
		handler(LayoutEvent{Order: order, Widths: widths})
	}
}
