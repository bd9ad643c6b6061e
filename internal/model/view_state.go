package model

// ViewState is the complete description of one table's visual
// configuration: filters, grouping, search term, column visibility,
// order and widths, and sort order. It is a value type; applying one to
// a controller replaces the previous state wholesale.
type ViewState struct {
	Filters       []Filter       `json:"filters"`
	FilterMode    FilterMode     `json:"filter_mode,omitempty"`
	GroupBy       string         `json:"group_by,omitempty"`
	SearchTerm    string         `json:"search_term,omitempty"`
	HiddenColumns []string       `json:"hidden_columns"`
	ColumnOrder   []string       `json:"column_order"`
	ColumnWidths  map[string]int `json:"column_widths"`
	SortConfig    []SortEntry    `json:"sort_config"`
}

// Clone deep-copies the state so snapshots never alias live controller
// fields.
func (v ViewState) Clone() ViewState {
	out := v
	if v.Filters != nil {
		out.Filters = make([]Filter, len(v.Filters))
		copy(out.Filters, v.Filters)
	}
	if v.HiddenColumns != nil {
		out.HiddenColumns = make([]string, len(v.HiddenColumns))
		copy(out.HiddenColumns, v.HiddenColumns)
	}
	if v.ColumnOrder != nil {
		out.ColumnOrder = make([]string, len(v.ColumnOrder))
		copy(out.ColumnOrder, v.ColumnOrder)
	}
	if v.ColumnWidths != nil {
		out.ColumnWidths = make(map[string]int, len(v.ColumnWidths))
		for k, w := range v.ColumnWidths {
			out.ColumnWidths[k] = w
		}
	}
	if v.SortConfig != nil {
		out.SortConfig = make([]SortEntry, len(v.SortConfig))
		copy(out.SortConfig, v.SortConfig)
	}
	return out
}

// Sanitize drops every reference to a column the table does not define:
// filters, grouping, hidden set, order, widths and sort entries. Unknown
// fields are ignored, never an error, so stale saved views stay loadable
// after a table definition changes. Grouping also clears when the column
// is no longer marked groupable.
func (v ViewState) Sanitize(table Table) ViewState {
	out := v.Clone()
	if len(out.Filters) > 0 {
		kept := out.Filters[:0]
		for _, f := range out.Filters {
			if table.HasColumn(f.Field) {
				kept = append(kept, f)
			}
		}
		out.Filters = kept
	}
	if out.GroupBy != "" {
		col, ok := table.Column(out.GroupBy)
		if !ok || !col.Groupable {
			out.GroupBy = ""
		}
	}
	if len(out.HiddenColumns) > 0 {
		kept := out.HiddenColumns[:0]
		for _, field := range out.HiddenColumns {
			if table.HasColumn(field) {
				kept = append(kept, field)
			}
		}
		out.HiddenColumns = kept
	}
	if len(out.ColumnOrder) > 0 {
		kept := out.ColumnOrder[:0]
		for _, field := range out.ColumnOrder {
			if table.HasColumn(field) {
				kept = append(kept, field)
			}
		}
		out.ColumnOrder = kept
	}
	for field := range out.ColumnWidths {
		if !table.HasColumn(field) {
			delete(out.ColumnWidths, field)
		}
	}
	if len(out.SortConfig) > 0 {
		kept := out.SortConfig[:0]
		for _, entry := range out.SortConfig {
			if table.HasColumn(entry.Field) {
				kept = append(kept, entry)
			}
		}
		out.SortConfig = kept
	}
	return out
}
