// Package matrix expands parameter sets into concrete test cases.
package matrix

import (
	"fmt"

	"samplesmoke/internal/domain/execution"
)

var (
	ErrNoOptions        = fmt.Errorf("%w: parameter set has no options", execution.ErrConfiguration)
	ErrEmptyValues      = fmt.Errorf("%w: option has no candidate values", execution.ErrConfiguration)
	ErrDuplicateOption  = fmt.Errorf("%w: duplicate option", execution.ErrConfiguration)
	ErrUnknownDeviceKey = fmt.Errorf("%w: device key is not an option", execution.ErrConfiguration)
)

// Validate checks the preconditions Expand relies on.
func Validate(params execution.ParameterSet, deviceKeys ...string) error {
	if len(params) == 0 {
		return ErrNoOptions
	}

	seen := make(map[string]struct{}, len(params))
	for _, opt := range params {
		if _, dup := seen[opt.Name]; dup {
			return fmt.Errorf("%w %q", ErrDuplicateOption, opt.Name)
		}
		seen[opt.Name] = struct{}{}

		if len(opt.Values) == 0 {
			return fmt.Errorf("%w: %q", ErrEmptyValues, opt.Name)
		}
	}

	for _, key := range deviceKeys {
		if _, ok := seen[key]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDeviceKey, key)
		}
	}

	return nil
}

// Expand returns one test case per element of the Cartesian product of all
// option values. Options are iterated in declaration order with the last
// option varying fastest; values keep their list order. Duplicates are kept.
// Every case gets its own copy of the params and device keys.
func Expand(params execution.ParameterSet, deviceKeys ...string) ([]execution.TestCase, error) {
	if err := Validate(params, deviceKeys...); err != nil {
		return nil, err
	}

	total := 1
	for _, opt := range params {
		total *= len(opt.Values)
	}

	cases := make([]execution.TestCase, 0, total)
	cursor := make([]int, len(params))

	for idx := 0; idx < total; idx++ {
		bound := make([]execution.Param, len(params))
		for pos, opt := range params {
			bound[pos] = execution.Param{Name: opt.Name, Value: opt.Values[cursor[pos]]}
		}
		cases = append(cases, execution.TestCase{
			Index:      idx,
			Params:     bound,
			DeviceKeys: append([]string(nil), deviceKeys...),
		})
		advance(cursor, params)
	}

	return cases, nil
}

// ExpandSuite expands a suite and stamps suite-level fields onto every case.
func ExpandSuite(suite execution.Suite) ([]execution.TestCase, error) {
	cases, err := Expand(suite.Params, suite.DeviceKeys...)
	if err != nil {
		return nil, fmt.Errorf("suite %q: %w", suite.Name, err)
	}

	for idx := range cases {
		cases[idx].Suite = suite.Name
		cases[idx].Sample = suite.Sample
		cases[idx].ExpectedTop1 = suite.ExpectedTop1
		cases[idx].Limits = suite.Limits
	}

	return cases, nil
}

// advance increments the mixed-radix cursor, rightmost digit first.
func advance(cursor []int, params execution.ParameterSet) {
	for pos := len(cursor) - 1; pos >= 0; pos-- {
		cursor[pos]++
		if cursor[pos] < len(params[pos].Values) {
			return
		}
		cursor[pos] = 0
	}
}
