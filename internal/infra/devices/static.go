// Package devices answers which compute devices are present in the environment.
package devices

import (
	"context"
	"strings"

	"samplesmoke/internal/ports"
)

// Static reports a fixed, configured set of devices.
type Static struct {
	devices []string
}

var _ ports.DeviceProbe = (*Static)(nil)

// NewStatic builds a probe from a list such as "CPU, GPU.0".
func NewStatic(devices ...string) *Static {
	cleaned := make([]string, 0, len(devices))
	for _, d := range devices {
		if trimmed := strings.TrimSpace(d); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return &Static{devices: cleaned}
}

// ParseList splits a comma separated device list.
func ParseList(raw string) []string {
	return NewStatic(strings.Split(raw, ",")...).devices
}

func (s *Static) AvailableDevices(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.devices...), nil
}
