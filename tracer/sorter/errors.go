package sorter

import "errors"

var (
	ErrLengthMismatch = errors.New("sorter: key and index buffers differ in length")
)
