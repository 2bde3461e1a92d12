// internal/models/row.go
package models

// Row is one record of a tabular source, keyed by column header.
// A column that is absent or holds an empty cell is treated as missing.
type Row map[string]string

// Get returns the cell value and whether it is present and not missing.
func (r Row) Get(column string) (string, bool) {
	v, ok := r[column]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
