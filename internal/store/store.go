// Package store provides database access methods for all catalog entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"github.com/goccy/go-json"
)

// listJSON marshals a string slice for a JSONB column, defaulting to an
// empty array so columns never hold SQL NULL.
func listJSON(v []string) []byte {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return b
}

// unmarshalList decodes a JSONB array column into a string slice.
func unmarshalList(data []byte) []string {
	var out []string
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	return out
}
