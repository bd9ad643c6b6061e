package explorer

import (
	"context"
	"errors"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/internal/model"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
)

// ErrClosed is returned for operations on a controller after Close.
var ErrClosed = errors.New("table controller closed")

// DatasetSource fetches the fully materialized row collection for one
// logical table. No pagination.
type DatasetSource interface {
	FetchRows(ctx context.Context, table string) ([]model.Row, error)
}

// SourceInvalidator is optionally implemented by caching dataset sources
// that can drop one table's cached rows, so a reload after a confirmed
// write refetches instead of serving the stale snapshot.
type SourceInvalidator interface {
	Invalidate(table string)
}

// RowMutator submits a single-field update and returns the row as the
// server now sees it.
type RowMutator interface {
	UpdateField(ctx context.Context, table, rowID, field string, value interface{}) (model.Row, error)
}

// EditResult is the outcome of one optimistic edit.
type EditResult struct {
	RowID string
	Field string
	// Row is the authoritative row after a confirmed edit.
	Row model.Row
	// Superseded marks a result that was discarded: a newer edit for
	// the same cell overtook this one, or the dataset was replaced, or
	// the controller was torn down. Nothing was applied or rolled back.
	Superseded bool
	Err        error
}

type pendingEdit struct {
	seq      uint64
	baseline interface{}
}

// Controller orchestrates one table instance: it owns the dataset and
// the current view state, drives the grid through the adapter, and runs
// the optimistic edit protocol against the row mutator. All state
// transitions happen under one mutex; network calls run outside it and
// re-enter through completeEdit.
type Controller struct {
	table   model.Table
	adapter *Adapter
	source  DatasetSource
	mutator RowMutator
	logger  *zap.Logger

	mu      sync.Mutex
	rows    []model.Row
	index   map[string]int
	state   model.ViewState
	pending map[string]*pendingEdit
	epoch   uint64
	closed  bool
}

func NewController(table model.Table, grid Grid, source DatasetSource, mutator RowMutator) *Controller {
	c := &Controller{
		table:   table,
		adapter: NewAdapter(grid),
		source:  source,
		mutator: mutator,
		logger:  logutil.GetLogger(context.Background()),
		index:   make(map[string]int),
		pending: make(map[string]*pendingEdit),
	}
	c.adapter.Subscribe(c.onGridEvent)
	return c
}

func (c *Controller) Table() model.Table {
	return c.table
}

// Load replaces the dataset wholesale and takes ownership of the slice.
// The current view state is kept and re-applied over the new rows.
// Responses to edits issued against the previous dataset are discarded
// when they eventually arrive.
func (c *Controller) Load(rows []model.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.rows = rows
	c.index = make(map[string]int, len(rows))
	keyField := c.table.KeyField()
	for i, row := range rows {
		c.index[row.ID(keyField)] = i
	}
	c.epoch++
	c.pending = make(map[string]*pendingEdit)
	c.adapter.Batch(func() {
		c.adapter.Render(c.table.Columns, rows)
		c.applyStateLocked()
	})
}

// Reload fetches a fresh dataset from the source and loads it.
func (c *Controller) Reload(ctx context.Context) error {
	if c.source == nil {
		return appErr.ErrInvalid
	}
	rows, err := c.source.FetchRows(ctx, c.table.Name)
	if err != nil {
		return err
	}
	c.Load(rows)
	return nil
}

// ApplyFilter replaces the explicit filter set; it never merges with the
// previous one. An empty list shows all rows. Filters naming columns the
// table does not define are dropped silently, never applied. Search-derived
// filters are tracked separately and stay untouched.
func (c *Controller) ApplyFilter(filters []model.Filter, mode model.FilterMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.Filters = model.ViewState{Filters: filters}.Sanitize(c.table).Filters
	c.state.FilterMode = mode
	c.adapter.ApplyFilter(c.predicateLocked())
}

func (c *Controller) ClearFilter() {
	c.ApplyFilter(nil, model.FilterAnd)
}

// SetSearchTerm expands a non-empty term into contains filters over the
// searchable columns, OR-combined, conjoined with the explicit filters.
// An empty term clears only the search-derived filters.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.SearchTerm = term
	c.adapter.ApplyFilter(c.predicateLocked())
}

// SetGroupBy re-partitions without altering filter or sort. An empty
// field clears grouping; so does a field the table does not define or
// does not mark groupable.
func (c *Controller) SetGroupBy(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.GroupBy = model.ViewState{GroupBy: field}.Sanitize(c.table).GroupBy
	c.adapter.ApplyGroupBy(c.state.GroupBy)
}

// SetSort replaces the sort order; sorting is stable and multi-key.
// Entries naming unknown columns are dropped.
func (c *Controller) SetSort(entries []model.SortEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.SortConfig = model.ViewState{SortConfig: entries}.Sanitize(c.table).SortConfig
	c.adapter.ApplySort(c.state.SortConfig)
}

// SetHiddenColumns replaces the hidden set without touching order or
// widths. Unknown columns are dropped, so the stored state never claims
// a column the grid was not told to hide.
func (c *Controller) SetHiddenColumns(fields []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.HiddenColumns = model.ViewState{HiddenColumns: fields}.Sanitize(c.table).HiddenColumns
	c.adapter.ApplyColumnLayout(c.state.ColumnOrder, c.state.HiddenColumns, c.state.ColumnWidths)
}

// CurrentViewState snapshots the full display configuration, detached
// from the live state, for saving.
func (c *Controller) CurrentViewState() model.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// ApplyViewState replaces the whole display configuration at once,
// never merging with the previous one. References to columns the table
// does not define are dropped, so stale saved views apply cleanly. The
// grid is driven through one batched update so no intermediate state
// becomes visible.
func (c *Controller) ApplyViewState(state model.ViewState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state = state.Sanitize(c.table)
	c.adapter.Batch(func() {
		c.applyStateLocked()
	})
}

// EditCell shows the new value immediately and issues the mutation in
// the background. The returned channel receives exactly one result:
// confirmation carrying the authoritative row, failure after the cell
// was rolled back to its last confirmed value, or a superseded notice.
//
// Edits to distinct cells fly concurrently. For one cell, the most
// recently issued edit wins: when responses arrive out of order, only
// the response for the latest request is applied and older ones are
// discarded, so a stale response never overwrites a newer value.
func (c *Controller) EditCell(ctx context.Context, rowID, field string, value interface{}) (<-chan EditResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.mutator == nil {
		c.mu.Unlock()
		return nil, appErr.ErrInvalid
	}
	col, ok := c.table.Column(field)
	if !ok || !col.Editable {
		c.mu.Unlock()
		return nil, appErr.ErrInvalid
	}
	idx, ok := c.index[rowID]
	if !ok {
		c.mu.Unlock()
		return nil, appErr.ErrNotFound
	}
	key := pendingKey(rowID, field)
	p := c.pending[key]
	if p == nil {
		p = &pendingEdit{baseline: c.rows[idx][field]}
		c.pending[key] = p
	}
	p.seq++
	seq := p.seq
	epoch := c.epoch
	c.rows[idx][field] = value
	c.adapter.SetCell(rowID, field, value)
	c.mu.Unlock()

	ch := make(chan EditResult, 1)
	go func() {
		row, err := c.mutator.UpdateField(ctx, c.table.Name, rowID, field, value)
		if err == nil {
			// the server changed even when this result ends up superseded
			if inv, ok := c.source.(SourceInvalidator); ok {
				inv.Invalidate(c.table.Name)
			}
		}
		ch <- c.completeEdit(key, rowID, field, seq, epoch, row, err)
	}()
	return ch, nil
}

func (c *Controller) completeEdit(key, rowID, field string, seq, epoch uint64, row model.Row, err error) EditResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := EditResult{RowID: rowID, Field: field}
	if c.closed || epoch != c.epoch {
		out.Superseded = true
		return out
	}
	p := c.pending[key]
	if p == nil || p.seq != seq {
		out.Superseded = true
		return out
	}
	delete(c.pending, key)
	idx, ok := c.index[rowID]
	if !ok {
		out.Superseded = true
		return out
	}
	if err != nil {
		c.rows[idx][field] = p.baseline
		c.adapter.SetCell(rowID, field, p.baseline)
		if errors.Is(err, appErr.ErrTransport) {
			c.logger.Warn("edit failed in transit, rolled back",
				zap.String("table", c.table.Name),
				zap.String("row", rowID),
				zap.String("field", field),
				zap.Error(err),
			)
		} else {
			c.logger.Info("edit rejected, rolled back",
				zap.String("table", c.table.Name),
				zap.String("row", rowID),
				zap.String("field", field),
				zap.Error(err),
			)
		}
		out.Err = err
		return out
	}
	c.reconcileLocked(idx, rowID, row)
	out.Row = c.rows[idx].Clone()
	return out
}

// reconcileLocked merges the authoritative row into the dataset. Server
// computed fields (timestamps and the like) may differ from the
// optimistic value. A field with its own in-flight edit keeps its
// optimistic value; the response for that edit settles it.
func (c *Controller) reconcileLocked(idx int, rowID string, server model.Row) {
	for field, value := range server {
		if _, busy := c.pending[pendingKey(rowID, field)]; busy {
			continue
		}
		if !looseEqual(c.rows[idx][field], value) {
			c.rows[idx][field] = value
			c.adapter.SetCell(rowID, field, value)
		}
	}
}

// Rows snapshots the dataset, each row cloned.
func (c *Controller) Rows() []model.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Row, 0, len(c.rows))
	for _, row := range c.rows {
		out = append(out, row.Clone())
	}
	return out
}

// Row reads one row by id, cloned.
func (c *Controller) Row(rowID string) (model.Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[rowID]
	if !ok {
		return nil, false
	}
	return c.rows[idx].Clone(), true
}

// Close detaches from the grid and stops listening for in-flight edit
// completions; their results are discarded when they arrive. The grid
// keeps whatever it currently shows.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.epoch++
	c.pending = make(map[string]*pendingEdit)
	c.adapter.Detach()
}

func (c *Controller) applyStateLocked() {
	c.adapter.ApplyFilter(c.predicateLocked())
	c.adapter.ApplyGroupBy(c.state.GroupBy)
	c.adapter.ApplyColumnLayout(c.state.ColumnOrder, c.state.HiddenColumns, c.state.ColumnWidths)
	c.adapter.ApplySort(c.state.SortConfig)
}

// predicateLocked conjoins the two independent filter groups: explicit
// column filters under their chosen mode, and the search expansion.
func (c *Controller) predicateLocked() func(model.Row) bool {
	explicit := BuildPredicate(c.state.Filters, c.state.FilterMode)
	search := searchPredicate(c.table, c.state.SearchTerm)
	switch {
	case explicit == nil:
		return search
	case search == nil:
		return explicit
	default:
		return func(row model.Row) bool {
			return explicit(row) && search(row)
		}
	}
}

func (c *Controller) onGridEvent(ev Event) {
	switch e := ev.(type) {
	case CellEditEvent:
		if _, err := c.EditCell(context.Background(), e.RowID, e.Field, e.NewValue); err != nil {
			c.logger.Warn("inline edit not accepted",
				zap.String("table", c.table.Name),
				zap.String("row", e.RowID),
				zap.String("field", e.Field),
				zap.Error(err),
			)
			c.adapter.SetCell(e.RowID, e.Field, e.OldValue)
		}
	case LayoutEvent:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		if e.Order != nil {
			c.state.ColumnOrder = append([]string(nil), e.Order...)
		}
		if len(e.Widths) > 0 {
			if c.state.ColumnWidths == nil {
				c.state.ColumnWidths = make(map[string]int, len(e.Widths))
			}
			for field, w := range e.Widths {
				c.state.ColumnWidths[field] = w
			}
		}
	}
}

func pendingKey(rowID, field string) string {
	return rowID + "\x00" + field
}
