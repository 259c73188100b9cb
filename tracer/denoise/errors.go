package denoise

import "errors"

var (
	ErrDenoiserUnavailable = errors.New("denoise: denoiser unavailable")
	ErrInvalidFrame        = errors.New("denoise: invalid frame")
	ErrNoEngine            = errors.New("denoise: no engine configured")
)
