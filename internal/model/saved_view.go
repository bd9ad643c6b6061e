package model

const ViewTypeTable = "table"

// SavedView is a named, persisted View-State snapshot tied to one
// logical table. Every configuration field is stored as its own column
// (not one opaque blob) so saved-view metadata stays queryable.
type SavedView struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	TableName     string         `json:"table_name"`
	ViewType      string         `json:"view_type"`
	Filters       []Filter       `json:"filters"`
	FilterMode    FilterMode     `json:"filter_mode,omitempty"`
	GroupBy       string         `json:"group_by,omitempty"`
	SearchTerm    string         `json:"search_term,omitempty"`
	HiddenColumns []string       `json:"hidden_columns"`
	ColumnOrder   []string       `json:"column_order"`
	ColumnWidths  map[string]int `json:"column_widths"`
	SortConfig    []SortEntry    `json:"sort_config"`
	Ctime         int64          `json:"ctime"`
	Mtime         int64          `json:"mtime"`
}

// SavedViewPatch is a partial update: nil means "leave the stored value
// alone", a pointer to the zero value means "clear it". The table a view
// belongs to is fixed at creation.
type SavedViewPatch struct {
	Name          *string
	ViewType      *string
	Filters       *[]Filter
	FilterMode    *FilterMode
	GroupBy       *string
	SearchTerm    *string
	HiddenColumns *[]string
	ColumnOrder   *[]string
	ColumnWidths  *map[string]int
	SortConfig    *[]SortEntry
}

// IsZero reports whether the patch carries no fields at all.
func (p SavedViewPatch) IsZero() bool {
	return p.Name == nil && p.ViewType == nil && p.Filters == nil &&
		p.FilterMode == nil && p.GroupBy == nil && p.SearchTerm == nil &&
		p.HiddenColumns == nil && p.ColumnOrder == nil &&
		p.ColumnWidths == nil && p.SortConfig == nil
}

// ViewState reassembles the display configuration for handing to a
// table controller. Applying it replaces the controller's current state
// wholesale, never merges.
func (v SavedView) ViewState() ViewState {
	return ViewState{
		Filters:       v.Filters,
		FilterMode:    v.FilterMode,
		GroupBy:       v.GroupBy,
		SearchTerm:    v.SearchTerm,
		HiddenColumns: v.HiddenColumns,
		ColumnOrder:   v.ColumnOrder,
		ColumnWidths:  v.ColumnWidths,
		SortConfig:    v.SortConfig,
	}.Clone()
}
