package model

import "fmt"

// Row is one dataset record: an opaque mapping from column name to a
// dynamically typed scalar or list value. Rows are keyed by the table's
// id field and are mutated in place on confirmed edits, replaced
// wholesale on refetch.
type Row map[string]interface{}

// ID returns the row's stable identifier rendered as a string.
func (r Row) ID(idField string) string {
	value, ok := r[idField]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// Clone copies the row one level deep. Cell values are replaced, never
// mutated, so sharing them between copies is fine.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
