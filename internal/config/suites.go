// Package config loads suite definitions from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"samplesmoke/internal/domain/execution"
)

// ErrInvalidSuiteFile wraps every structural problem found in a suite file.
var ErrInvalidSuiteFile = fmt.Errorf("%w: invalid suite file", execution.ErrConfiguration)

type suiteFile struct {
	Suites []suiteDoc `yaml:"suites"`
}

type suiteDoc struct {
	Name         string    `yaml:"name"`
	Sample       string    `yaml:"sample"`
	ExpectedTop1 yaml.Node `yaml:"expected_top1"`
	DeviceKeys   []string  `yaml:"device_keys"`
	TimeLimit    string    `yaml:"time_limit"`
	// Params is kept as a node so option order survives decoding.
	Params yaml.Node `yaml:"params"`
}

// LoadSuitesFile reads suite definitions from path.
func LoadSuitesFile(path string) ([]execution.Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}
	suites, err := ParseSuites(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return suites, nil
}

// ParseSuites decodes a suite document:
//
//	suites:
//	  - name: classification_sample_async_fp32
//	    sample: classification_sample_async
//	    expected_top1: 215
//	    device_keys: [d]
//	    params:
//	      i: [227x227/dog.bmp]
//	      batch: [1, 2, 4]
//	      d: [CPU]
//
// Scalar values of any type are taken verbatim as strings; a scalar in place
// of a list is a single-value option.
func ParseSuites(r io.Reader) ([]execution.Suite, error) {
	var file suiteFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidSuiteFile)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSuiteFile, err)
	}
	if len(file.Suites) == 0 {
		return nil, fmt.Errorf("%w: no suites defined", ErrInvalidSuiteFile)
	}

	suites := make([]execution.Suite, 0, len(file.Suites))
	for idx, doc := range file.Suites {
		suite, err := doc.toSuite()
		if err != nil {
			return nil, fmt.Errorf("suite #%d: %w", idx+1, err)
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

func (d suiteDoc) toSuite() (execution.Suite, error) {
	if d.Name == "" {
		return execution.Suite{}, fmt.Errorf("%w: name is required", ErrInvalidSuiteFile)
	}

	suite := execution.Suite{
		Name:       d.Name,
		Sample:     d.Sample,
		DeviceKeys: d.DeviceKeys,
	}

	if d.ExpectedTop1.Kind != 0 {
		if d.ExpectedTop1.Kind != yaml.ScalarNode {
			return execution.Suite{}, fmt.Errorf("%w: %s: expected_top1 must be a scalar (line %d)", ErrInvalidSuiteFile, d.Name, d.ExpectedTop1.Line)
		}
		suite.ExpectedTop1 = d.ExpectedTop1.Value
	}

	if d.TimeLimit != "" {
		limit, err := time.ParseDuration(d.TimeLimit)
		if err != nil || limit <= 0 {
			return execution.Suite{}, fmt.Errorf("%w: %s: invalid time_limit %q", ErrInvalidSuiteFile, d.Name, d.TimeLimit)
		}
		suite.Limits.TimeLimit = limit
	}

	params, err := decodeParams(&d.Params)
	if err != nil {
		return execution.Suite{}, fmt.Errorf("%s: %w", d.Name, err)
	}
	suite.Params = params

	return suite, nil
}

func decodeParams(node *yaml.Node) (execution.ParameterSet, error) {
	if node.Kind == 0 {
		return nil, fmt.Errorf("%w: params are required", ErrInvalidSuiteFile)
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: params must be a mapping (line %d)", ErrInvalidSuiteFile, node.Line)
	}

	params := make(execution.ParameterSet, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		values, err := scalarList(value)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", key.Value, err)
		}
		params = append(params, execution.Option{Name: key.Value, Values: values})
	}
	return params, nil
}

func scalarList(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: values must be scalars (line %d)", ErrInvalidSuiteFile, item.Line)
			}
			values = append(values, item.Value)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("%w: values must be a list (line %d)", ErrInvalidSuiteFile, node.Line)
	}
}
