package model

// Entity is one stored row of a logical table. The row itself is kept
// as an opaque document; the envelope carries identity, soft-delete
// state and timestamps.
type Entity struct {
	ID        string `json:"id"`
	TableName string `json:"table_name"`
	Data      Row    `json:"data"`
	State     int    `json:"state"`
	Ctime     int64  `json:"ctime"`
	Mtime     int64  `json:"mtime"`
}
