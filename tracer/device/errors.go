package device

import "errors"

var (
	ErrOutOfMemory   = errors.New("device: allocation exceeds memory budget")
	ErrKernelPanic   = errors.New("device: kernel panicked")
	ErrInvalidWorkSz = errors.New("device: invalid work size")
)
