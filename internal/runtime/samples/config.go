package samples

import "samplesmoke/internal/domain/execution"

const (
	VariantCPP    = "C++"
	VariantPython = "Python"
)

// Layout locates sample programs and their input data on disk.
type Layout struct {
	// BinDir holds the compiled C++ samples, one executable per sample.
	BinDir string
	// PythonDir holds the Python samples as <sample>/<sample>.py.
	PythonDir string
	// Python is the interpreter used for Python samples.
	Python string
	// ModelsDir is the root that relative model paths are resolved against.
	ModelsDir string
	// ImagesDir is the root that relative input paths are resolved against.
	ImagesDir string
}

// Config describes how to build a sample runner.
type Config struct {
	Layout        Layout
	Variants      []string
	DefaultLimits execution.RunLimits
}
