package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/domain/matrix"
)

const (
	messageTypeCase  = "case"
	messageTypeSuite = "suite"
	messageTypeDone  = "done"
)

// requestEnvelope carries either one concrete case ("case": params) or a
// whole suite to expand ("suite": options).
type requestEnvelope struct {
	Type         string           `json:"type"`
	ID           string           `json:"id"`
	Suite        string           `json:"suite"`
	Sample       string           `json:"sample"`
	ExpectedTop1 string           `json:"expected_top1"`
	Params       []paramEnvelope  `json:"params,omitempty"`
	Options      []optionEnvelope `json:"options,omitempty"`
	DeviceKeys   []string         `json:"device_keys,omitempty"`
	TimeLimitMs  int64            `json:"time_limit_ms,omitempty"`
}

type paramEnvelope struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type optionEnvelope struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type reportEnvelope struct {
	RunID      string           `json:"run_id"`
	ID         string           `json:"id"`
	Suite      string           `json:"suite"`
	Status     execution.Status `json:"status"`
	Detected   string           `json:"detected,omitempty"`
	Command    []string         `json:"command,omitempty"`
	ExitCode   *int64           `json:"exit_code,omitempty"`
	DurationMs *int64           `json:"duration_ms,omitempty"`
	TimedOut   bool             `json:"timed_out,omitempty"`
	Stdout     string           `json:"stdout,omitempty"`
	Stderr     string           `json:"stderr,omitempty"`
	Error      string           `json:"error,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// rejectedRequest is returned for a request that cannot be turned into cases.
// suite names the request so the rejection can be reported back.
type rejectedRequest struct {
	suite string
	err   error
}

func (r *rejectedRequest) Error() string { return r.err.Error() }

func (r *rejectedRequest) Unwrap() error { return r.err }

// decodeRequestMessage returns the cases carried by msg, or io.EOF for a
// done marker. Any other failure is a *rejectedRequest.
func decodeRequestMessage(msg kafkago.Message) ([]execution.TestCase, error) {
	var envelope requestEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return nil, &rejectedRequest{
			suite: requestEnvelope{}.suiteName(msg),
			err:   fmt.Errorf("%w: decode message: %w", execution.ErrConfiguration, err),
		}
	}

	cases, err := envelope.decode(msg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &rejectedRequest{suite: envelope.suiteName(msg), err: err}
	}
	return cases, err
}

func (e requestEnvelope) decode(msg kafkago.Message) ([]execution.TestCase, error) {
	msgType := e.Type
	if msgType == "" {
		msgType = messageTypeCase
	}

	switch msgType {
	case messageTypeCase:
		tc, err := e.toCase(msg)
		if err != nil {
			return nil, err
		}
		return []execution.TestCase{tc}, nil
	case messageTypeSuite:
		return matrix.ExpandSuite(e.toSuite(msg))
	case messageTypeDone:
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", execution.ErrConfiguration, msgType)
	}
}

func (e requestEnvelope) suiteName(msg kafkago.Message) string {
	switch {
	case e.Suite != "":
		return e.Suite
	case e.ID != "":
		return e.ID
	case len(msg.Key) > 0:
		return string(msg.Key)
	default:
		return fmt.Sprintf("%s:%d", msg.Topic, msg.Offset)
	}
}

func (e requestEnvelope) limits() execution.RunLimits {
	var limits execution.RunLimits
	if e.TimeLimitMs > 0 {
		limits.TimeLimit = time.Duration(e.TimeLimitMs) * time.Millisecond
	}
	return limits
}

func (e requestEnvelope) toCase(msg kafkago.Message) (execution.TestCase, error) {
	if len(e.Params) == 0 {
		return execution.TestCase{}, fmt.Errorf("%w: case message missing params", execution.ErrConfiguration)
	}

	params := make([]execution.Param, len(e.Params))
	seen := make(map[string]struct{}, len(e.Params))
	for idx, p := range e.Params {
		if p.Name == "" {
			return execution.TestCase{}, fmt.Errorf("%w: param #%d has no name", execution.ErrConfiguration, idx+1)
		}
		if _, dup := seen[p.Name]; dup {
			return execution.TestCase{}, fmt.Errorf("%w %q", matrix.ErrDuplicateOption, p.Name)
		}
		seen[p.Name] = struct{}{}
		params[idx] = execution.Param{Name: p.Name, Value: p.Value}
	}
	for _, key := range e.DeviceKeys {
		if _, ok := seen[key]; !ok {
			return execution.TestCase{}, fmt.Errorf("%w: %q", matrix.ErrUnknownDeviceKey, key)
		}
	}

	return execution.TestCase{
		Suite:        e.suiteName(msg),
		Sample:       e.Sample,
		Params:       params,
		DeviceKeys:   e.DeviceKeys,
		ExpectedTop1: e.ExpectedTop1,
		Limits:       e.limits(),
	}, nil
}

func (e requestEnvelope) toSuite(msg kafkago.Message) execution.Suite {
	options := make(execution.ParameterSet, len(e.Options))
	for idx, opt := range e.Options {
		options[idx] = execution.Option{Name: opt.Name, Values: opt.Values}
	}
	return execution.Suite{
		Name:         e.suiteName(msg),
		Sample:       e.Sample,
		ExpectedTop1: e.ExpectedTop1,
		Params:       options,
		DeviceKeys:   e.DeviceKeys,
		Limits:       e.limits(),
	}
}

func encodeRunReport(report execution.RunReport) ([]byte, error) {
	payload, err := json.Marshal(makeReportEnvelope(report))
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return payload, nil
}

func makeReportEnvelope(report execution.RunReport) reportEnvelope {
	envelope := reportEnvelope{
		RunID:     report.RunID,
		ID:        report.Case.ID(),
		Suite:     report.Case.Suite,
		Status:    report.Status,
		Detected:  report.Detected,
		Timestamp: time.Now().UTC(),
	}

	if result := report.Result; result != nil {
		exit := result.ExitCode
		envelope.ExitCode = &exit

		dur := result.Duration.Milliseconds()
		envelope.DurationMs = &dur

		envelope.Command = result.Command
		envelope.TimedOut = result.TimedOut
		envelope.Stdout = result.Stdout
		envelope.Stderr = result.Stderr
	}

	if report.Err != nil {
		envelope.Error = report.Err.Error()
	}

	return envelope
}
