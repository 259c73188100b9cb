package renderer

import "errors"

var (
	ErrSceneNotDefined   = errors.New("renderer: no scene defined")
	ErrCameraNotDefined  = errors.New("renderer: no camera defined")
	ErrResourceExhausted = errors.New("renderer: not enough device memory; path tracing disabled for this frame")
	ErrUnsupportedUpdate = errors.New("renderer: unsupported update")
)
