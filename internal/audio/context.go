// internal/audio/context.go
package audio

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

func initContext() (*malgo.AllocatedContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return ctx, nil
}

func freeContext(ctx *malgo.AllocatedContext) error {
	if err := ctx.Uninit(); err != nil {
		return fmt.Errorf("uninit context: %w", err)
	}
	ctx.Free()
	return nil
}

func listDevices(ctx *malgo.AllocatedContext, kind malgo.DeviceType) ([]malgo.DeviceInfo, error) {
	infos, err := ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

func deviceID(devices []malgo.DeviceInfo, index int) (malgo.DeviceID, error) {
	if index < 0 || index >= len(devices) {
		return malgo.DeviceID{}, fmt.Errorf("%w: %d (have %d devices)", ErrDeviceIndex, index, len(devices))
	}
	return devices[index].ID, nil
}

// Device is one entry of a device listing.
type Device struct {
	Index     int
	Name      string
	IsDefault bool
}

// Devices lists the capture or playback devices of the default backend.
func Devices(kind malgo.DeviceType) ([]Device, error) {
	ctx, err := initContext()
	if err != nil {
		return nil, err
	}
	defer func() { _ = freeContext(ctx) }()

	infos, err := listDevices(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]Device, len(infos))
	for i, info := range infos {
		out[i] = Device{Index: i, Name: info.Name(), IsDefault: info.IsDefault != 0}
	}
	return out, nil
}
