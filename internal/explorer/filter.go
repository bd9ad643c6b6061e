package explorer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tabula-io/tabula/internal/model"
)

// BuildPredicate compiles a filter list into one row predicate under a
// single boolean mode, never mixed within an evaluation. An empty list
// yields nil, meaning "show all rows".
func BuildPredicate(filters []model.Filter, mode model.FilterMode) func(model.Row) bool {
	if len(filters) == 0 {
		return nil
	}
	preds := make([]func(model.Row) bool, 0, len(filters))
	for _, f := range filters {
		preds = append(preds, matcher(f))
	}
	if mode == model.FilterOr {
		return func(row model.Row) bool {
			for _, pred := range preds {
				if pred(row) {
					return true
				}
			}
			return false
		}
	}
	return func(row model.Row) bool {
		for _, pred := range preds {
			if !pred(row) {
				return false
			}
		}
		return true
	}
}

// searchPredicate expands a free-text term into contains filters over
// the table's searchable columns, OR-combined and case-insensitive.
func searchPredicate(table model.Table, term string) func(model.Row) bool {
	if term == "" {
		return nil
	}
	fields := table.SearchableFields()
	filters := make([]model.Filter, 0, len(fields))
	for _, field := range fields {
		filters = append(filters, model.Filter{Field: field, Op: model.OpLike, Value: term})
	}
	return BuildPredicate(filters, model.FilterOr)
}

func matcher(f model.Filter) func(model.Row) bool {
	switch f.Op {
	case model.OpLike:
		term := strings.ToLower(stringify(f.Value))
		return func(row model.Row) bool {
			cell, ok := row[f.Field]
			if !ok || cell == nil {
				return false
			}
			for _, v := range cellValues(cell) {
				if strings.Contains(strings.ToLower(stringify(v)), term) {
					return true
				}
			}
			return false
		}
	case model.OpIn:
		wanted := cellValues(f.Value)
		return func(row model.Row) bool {
			cell, ok := row[f.Field]
			if !ok || cell == nil {
				return false
			}
			for _, have := range cellValues(cell) {
				for _, want := range wanted {
					if looseEqual(have, want) {
						return true
					}
				}
			}
			return false
		}
	case model.OpRange:
		min, max := rangeBounds(f.Value)
		return func(row model.Row) bool {
			cell, ok := row[f.Field]
			if !ok || cell == nil {
				return false
			}
			if min != nil && compareValues(cell, min) < 0 {
				return false
			}
			if max != nil && compareValues(cell, max) > 0 {
				return false
			}
			return true
		}
	default:
		return func(row model.Row) bool {
			return looseEqual(row[f.Field], f.Value)
		}
	}
}

// rangeBounds pulls the optional "min"/"max" members out of a range
// filter value. A missing member leaves that end open.
func rangeBounds(value interface{}) (interface{}, interface{}) {
	bounds, ok := value.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return bounds["min"], bounds["max"]
}

// cellValues flattens a cell into its comparable members: list-typed
// cells contribute each element, scalars contribute themselves.
func cellValues(cell interface{}) []interface{} {
	switch v := cell.(type) {
	case []interface{}:
		return v
	case []string:
		out := make([]interface{}, 0, len(v))
		for _, s := range v {
			out = append(out, s)
		}
		return out
	default:
		return []interface{}{cell}
	}
}

// looseEqual compares the way the wire format does: numbers compare
// numerically whatever their Go type, everything else by string form.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			return na == nb
		}
	}
	return stringify(a) == stringify(b)
}

// compareValues orders two non-nil cells: numeric when both sides
// coerce, case-insensitive string order otherwise.
func compareValues(a, b interface{}) int {
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(strings.ToLower(stringify(a)), strings.ToLower(stringify(b)))
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
