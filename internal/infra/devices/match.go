package devices

import "strings"

var virtualDevices = map[string]struct{}{
	"AUTO":   {},
	"MULTI":  {},
	"HETERO": {},
	"BATCH":  {},
}

// Supports reports whether the requested device can run given the available
// ones. Virtual devices ("MULTI:CPU,GPU", "HETERO:GPU,CPU", "AUTO") are
// satisfied when every listed device is available, or when any device is
// available if none are listed. Listed devices may carry a batch or priority
// suffix ("BATCH:GPU(4)"), which is ignored. "GPU" is satisfied by "GPU.0".
func Supports(available []string, requested string) bool {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return false
	}

	name, list, hasList := strings.Cut(requested, ":")
	if _, virtual := virtualDevices[strings.ToUpper(name)]; virtual {
		if !hasList || strings.TrimSpace(list) == "" {
			return len(available) > 0
		}
		for _, part := range strings.Split(list, ",") {
			if !Supports(available, stripSuffix(part)) {
				return false
			}
		}
		return true
	}

	for _, dev := range available {
		if strings.EqualFold(dev, requested) {
			return true
		}
		if base, _, ok := strings.Cut(dev, "."); ok && strings.EqualFold(base, requested) {
			return true
		}
	}
	return false
}

// stripSuffix drops a trailing "(...)" from a listed device, "GPU(4)" -> "GPU".
func stripSuffix(device string) string {
	device = strings.TrimSpace(device)
	if open := strings.IndexByte(device, '('); open > 0 && strings.HasSuffix(device, ")") {
		return device[:open]
	}
	return device
}
