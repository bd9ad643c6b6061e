package client

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/internal/explorer"
	"github.com/tabula-io/tabula/internal/model"
)

// WrapLruCacheToSource decorates a dataset source with an expiring LRU
// keyed by table name, so reopening a table within the TTL does not
// refetch. Cached rows are cloned on the way in and out; the controller
// owns what it is handed.
func WrapLruCacheToSource(next explorer.DatasetSource, size int, ttl time.Duration) explorer.DatasetSource {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &lruSource{
		next:  next,
		cache: expirable.NewLRU[string, []model.Row](size, nil, ttl),
	}
}

type lruSource struct {
	next  explorer.DatasetSource
	cache *expirable.LRU[string, []model.Row]
}

func (l *lruSource) FetchRows(ctx context.Context, table string) ([]model.Row, error) {
	if cached, ok := l.cache.Get(table); ok {
		logutil.GetLogger(ctx).Debug("dataset cache hit (lru)", zap.String("table", table))
		return cloneRows(cached), nil
	}
	rows, err := l.next.FetchRows(ctx, table)
	if err != nil {
		return nil, err
	}
	l.cache.Add(table, cloneRows(rows))
	return rows, nil
}

// Invalidate drops one table's cached dataset, typically after a
// mutation outside the optimistic-edit path.
func (l *lruSource) Invalidate(table string) {
	l.cache.Remove(table)
}

func cloneRows(rows []model.Row) []model.Row {
	if len(rows) == 0 {
		return nil
	}
	clone := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		clone = append(clone, row.Clone())
	}
	return clone
}
