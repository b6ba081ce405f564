package core

import (
	"encoding/json"
	"io"
)

// MarshalResults pretty-prints results keyed by position as JSON for humans
// or pipelines.
func MarshalResults(w io.Writer, results map[int]ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
