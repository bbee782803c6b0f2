// Package export holds what the interchange formats share.
package export

import (
	"encoding/json"
	"errors"
)

// ErrMalformed is returned when an interchange document has an unexpected
// shape. The caller is handed an empty document alongside it.
var ErrMalformed = errors.New("malformed interchange document")

// Format identifies an interchange shape.
type Format string

const (
	FormatUnknown  Format = ""
	FormatSemantic Format = "semantic" // object graph in meters
	FormatSnapshot Format = "snapshot" // raw scene in pixels
)

// Detect sniffs the format of an interchange document. Snapshots carry a
// version and a draw order; semantic graphs carry an objects array.
func Detect(data []byte) Format {
	var probe struct {
		Version *int             `json:"version"`
		Order   json.RawMessage  `json:"order"`
		Objects *json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return FormatUnknown
	}
	switch {
	case probe.Version != nil && probe.Order != nil:
		return FormatSnapshot
	case probe.Objects != nil:
		return FormatSemantic
	}
	return FormatUnknown
}
