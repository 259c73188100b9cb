package pathstate

import "errors"

var (
	ErrInvalidDimensions = errors.New("path state: invalid frame dimensions")
)
