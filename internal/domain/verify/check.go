package verify

import (
	"errors"
	"fmt"
	"strings"
)

// Mode controls how the detected class is compared with the expected one.
type Mode string

const (
	// ModeExact requires the detected class index to equal the expected index.
	ModeExact Mode = "exact"
	// ModeLenient accepts any detected index that contains the expected one
	// as a substring.
	ModeLenient Mode = "lenient"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeExact:
		return ModeExact, nil
	case ModeLenient:
		return ModeLenient, nil
	default:
		return "", fmt.Errorf("unknown comparison mode %q", raw)
	}
}

// WrongTop1 is the failure message reported for any verification failure.
const WrongTop1 = "Wrong top1 class"

// ErrWrongTop1 is returned to callers that surface verification failures as
// errors.
var ErrWrongTop1 = errors.New(WrongTop1)

// Verdict is the outcome of checking one sample output.
type Verdict struct {
	Passed bool
	// Found reports whether any classification line was present.
	Found bool
	// Detected is the class index of the first classification line.
	Detected string
	// Line is the 1-based line number of the first classification line.
	Line int
}

// Check scans stdout for the first classification line and compares its class
// index with expected. Later lines are never considered. Check has no side
// effects.
func Check(stdout, expected string, mode Mode) Verdict {
	for idx, line := range strings.Split(stdout, "\n") {
		cls, err := ParseLine(line)
		if err != nil {
			continue
		}
		return Verdict{
			Passed:   matches(cls.Class, expected, mode),
			Found:    true,
			Detected: cls.Class,
			Line:     idx + 1,
		}
	}
	return Verdict{}
}

func matches(detected, expected string, mode Mode) bool {
	if expected == "" {
		return false
	}
	if mode == ModeLenient {
		return strings.Contains(detected, expected)
	}
	return trimZeros(detected) == trimZeros(expected)
}

func trimZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" && s != "" {
		return "0"
	}
	return trimmed
}
