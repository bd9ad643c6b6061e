package model

type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
	ColumnDate   ColumnType = "date"
	ColumnEnum   ColumnType = "enum"
	ColumnList   ColumnType = "list"
)

// Column is the static per-table descriptor for one field. Enum option
// lists (roles, contact types and the like) are configuration carried
// here, not package constants, so tables run with independent sets.
type Column struct {
	Field      string     `json:"field"`
	Title      string     `json:"title"`
	Type       ColumnType `json:"type"`
	Editable   bool       `json:"editable"`
	Filterable bool       `json:"filterable"`
	Groupable  bool       `json:"groupable"`
	Searchable bool       `json:"searchable"`
	Width      int        `json:"width,omitempty"`
	Options    []string   `json:"options,omitempty"`
}

// Table is one logical table: a named dataset category sharing a single
// column descriptor set. Immutable for the lifetime of a controller.
type Table struct {
	Name    string   `json:"name"`
	IDField string   `json:"id_field,omitempty"`
	Columns []Column `json:"columns"`
}

func (t Table) KeyField() string {
	if t.IDField == "" {
		return "id"
	}
	return t.IDField
}

func (t Table) Column(field string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Field == field {
			return col, true
		}
	}
	return Column{}, false
}

func (t Table) HasColumn(field string) bool {
	_, ok := t.Column(field)
	return ok
}

// SearchableFields is the whitelist the free-text search term expands
// over, in descriptor order.
func (t Table) SearchableFields() []string {
	fields := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if col.Searchable {
			fields = append(fields, col.Field)
		}
	}
	return fields
}
