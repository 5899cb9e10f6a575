package execution

import "strings"

// VariantOption selects which implementation of a sample is invoked. It is
// not forwarded to the sample as a flag.
const VariantOption = "sample_type"

// Suite describes a family of test cases produced from one ParameterSet.
type Suite struct {
	Name         string
	Sample       string
	ExpectedTop1 string
	Params       ParameterSet
	DeviceKeys   []string
	Limits       RunLimits
}

// TestCase is one concrete assignment of a value to every option of a suite.
type TestCase struct {
	Suite        string
	Sample       string
	Index        int
	Params       []Param
	DeviceKeys   []string
	ExpectedTop1 string
	Limits       RunLimits
}

// Value returns the value bound to the named option.
func (c TestCase) Value(name string) (string, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Variant returns the implementation variant of the case, or "" when the
// suite does not vary it.
func (c TestCase) Variant() string {
	v, _ := c.Value(VariantOption)
	return v
}

// Devices returns the values of the options tagged as device selectors.
func (c TestCase) Devices() []string {
	if len(c.DeviceKeys) == 0 {
		return nil
	}
	devices := make([]string, 0, len(c.DeviceKeys))
	for _, key := range c.DeviceKeys {
		if v, ok := c.Value(key); ok {
			devices = append(devices, v)
		}
	}
	return devices
}

// ID renders a stable identifier, e.g. "suite[i=dog.bmp-batch=1-d=CPU]".
func (c TestCase) ID() string {
	var b strings.Builder
	b.WriteString(c.Suite)
	b.WriteByte('[')
	for idx, p := range c.Params {
		if idx > 0 {
			b.WriteByte('-')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	b.WriteByte(']')
	return b.String()
}
