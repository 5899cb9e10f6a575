package ports

import "context"

// DeviceProbe reports the compute devices present in the environment.
type DeviceProbe interface {
	AvailableDevices(ctx context.Context) ([]string, error)
}
