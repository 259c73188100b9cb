package renderer

import (
	"fmt"

	"github.com/achilleasa/wavepath/scene"
)

type UpdateType uint8

// Queued updates are applied in this order at the start of the next tick.
const (
	UpdateScene UpdateType = iota
	UpdateCamera
	UpdateOptions
	numUpdateTypes
)

func (ut UpdateType) String() string {
	switch ut {
	case UpdateScene:
		return "scene"
	case UpdateCamera:
		return "camera"
	case UpdateOptions:
		return "options"
	}
	return fmt.Sprintf("update(%d)", uint8(ut))
}

// Queue an update. The data type must match the update type: *scene.Scene,
// *scene.Camera or Options. Queued updates are applied by the next Tick;
// queueing the same type twice keeps the latest value.
func (pt *PathTracer) Update(updateType UpdateType, data interface{}) {
	pt.updateMutex.Lock()
	pt.updateBuffer[updateType] = data
	pt.updateMutex.Unlock()
}

// Commit queued changes.
func (pt *PathTracer) commitUpdates() error {
	pt.updateMutex.Lock()
	pending := pt.updateBuffer
	pt.updateBuffer = make(map[UpdateType]interface{}, 0)
	pt.updateMutex.Unlock()

	for updateType := UpdateScene; updateType < numUpdateTypes; updateType++ {
		data, ok := pending[updateType]
		if !ok {
			continue
		}
		delete(pending, updateType)

		var err error
		switch updateType {
		case UpdateScene:
			sc, isScene := data.(*scene.Scene)
			if !isScene {
				err = fmt.Errorf("%w: %s update with %T payload", ErrUnsupportedUpdate, updateType, data)
				break
			}
			err = pt.setScene(sc)
		case UpdateCamera:
			camera, isCamera := data.(*scene.Camera)
			if !isCamera || camera == nil {
				err = fmt.Errorf("%w: %s update with %T payload", ErrUnsupportedUpdate, updateType, data)
				break
			}
			pt.camera = *camera
		case UpdateOptions:
			opts, isOptions := data.(Options)
			if !isOptions {
				err = fmt.Errorf("%w: %s update with %T payload", ErrUnsupportedUpdate, updateType, data)
				break
			}
			pt.setOptions(opts)
		}

		if err != nil {
			return err
		}
	}

	if len(pending) != 0 {
		return fmt.Errorf("%w: %d updates with unknown type", ErrUnsupportedUpdate, len(pending))
	}
	return nil
}
