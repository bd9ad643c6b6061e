package service

import (
	"crypto/rand"
	"encoding/hex"
)

// newID mints a 32-char hex id. Ids are opaque strings everywhere above
// the repo layer; rows created with an explicit key keep it instead.
func newID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
