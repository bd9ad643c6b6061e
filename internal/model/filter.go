package model

type FilterOp string

const (
	OpEq    FilterOp = "eq"
	OpLike  FilterOp = "like"
	OpIn    FilterOp = "in"
	OpRange FilterOp = "range"
)

type FilterMode string

const (
	FilterAnd FilterMode = "and"
	FilterOr  FilterMode = "or"
)

// Filter is a single {field, operator, value} predicate. Value is
// JSON-shaped: a scalar for eq/like, a list for in, and an object with
// optional "min"/"max" members for range.
type Filter struct {
	Field string      `json:"field"`
	Op    FilterOp    `json:"op"`
	Value interface{} `json:"value,omitempty"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type SortEntry struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}
