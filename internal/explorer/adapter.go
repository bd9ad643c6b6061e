package explorer

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/internal/model"
)

// Adapter is the boundary around the rendering widget. Widget failures
// are absorbed and logged, never propagated: a rejected call leaves the
// previous visual state active and the surrounding page alive.
type Adapter struct {
	grid   Grid
	logger *zap.Logger
}

func NewAdapter(grid Grid) *Adapter {
	return &Adapter{grid: grid, logger: logutil.GetLogger(context.Background())}
}

func (a *Adapter) Render(columns []model.Column, rows []model.Row) {
	a.swallow("render", a.grid.Render(columns, rows))
}

func (a *Adapter) ApplyFilter(pred func(model.Row) bool) {
	a.swallow("filter", a.grid.ApplyFilter(pred))
}

func (a *Adapter) ApplyGroupBy(field string) {
	a.swallow("group", a.grid.ApplyGroupBy(field))
}

func (a *Adapter) ApplyColumnLayout(order []string, hidden []string, widths map[string]int) {
	a.swallow("layout", a.grid.ApplyColumnLayout(order, hidden, widths))
}

func (a *Adapter) ApplySort(entries []model.SortEntry) {
	a.swallow("sort", a.grid.ApplySort(entries))
}

func (a *Adapter) SetCell(rowID, field string, value interface{}) {
	a.swallow("set_cell", a.grid.SetCell(rowID, field, value))
}

func (a *Adapter) Subscribe(fn func(Event)) {
	a.grid.Subscribe(fn)
}

func (a *Adapter) Detach() {
	a.grid.Subscribe(nil)
}

// Batch runs fn inside one widget update when the grid supports
// coalescing, so a multi-call change paints once.
func (a *Adapter) Batch(fn func()) {
	if b, ok := a.grid.(BatchUpdater); ok {
		b.BeginUpdate()
		defer b.EndUpdate()
	}
	fn()
}

func (a *Adapter) swallow(op string, err error) {
	if err == nil {
		return
	}
	a.logger.Warn("grid rejected operation, keeping previous state",
		zap.String("op", op),
		zap.Error(err),
	)
}
