package layout

import "errors"

var (
	// ErrInvalidLayout indicates the input is not a JSON object.
	ErrInvalidLayout = errors.New("invalid layout document")
)
