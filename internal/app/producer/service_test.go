package producer

import (
	"context"
	"errors"
	"io"
	"testing"

	"samplesmoke/internal/domain/execution"
)

func TestDefaultSuitesExpandToTwelveCases(t *testing.T) {
	t.Parallel()

	service, err := NewService(DefaultSuites()...)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	cases := service.Cases()
	if len(cases) != 12 {
		t.Fatalf("expected 12 cases, got %d", len(cases))
	}

	first := cases[0]
	if first.Suite != "classification_sample_async_fp32" {
		t.Fatalf("unexpected first suite %q", first.Suite)
	}
	if first.Sample != "classification_sample_async" || first.ExpectedTop1 != "215" {
		t.Fatalf("unexpected sample metadata: %+v", first)
	}
	want := "classification_sample_async_fp32[i=227x227/dog.bmp-m=squeezenet1.1/caffe_squeezenet_v1_1_FP32_batch_1_seqlen_[1]_v10.xml-sample_type=C++-batch=1-d=CPU]"
	if first.ID() != want {
		t.Fatalf("unexpected first case id:\n got %s\nwant %s", first.ID(), want)
	}
	if devices := first.Devices(); len(devices) != 1 || devices[0] != "CPU" {
		t.Fatalf("expected CPU device tag, got %v", devices)
	}
	if cases[6].Suite != "classification_sample_async_fp16" {
		t.Fatalf("expected fp16 suite to follow fp32, got %q", cases[6].Suite)
	}
}

func TestNextCaseReturnsEOFWhenExhausted(t *testing.T) {
	t.Parallel()

	service, err := NewService(execution.Suite{
		Name:   "tiny",
		Params: execution.ParameterSet{{Name: "batch", Values: []string{"1", "2"}}},
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := service.NextCase(context.Background()); err != nil {
			t.Fatalf("NextCase %d returned error: %v", i, err)
		}
	}

	_, err = service.NextCase(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestNextCaseContextCancellation(t *testing.T) {
	t.Parallel()

	service, err := NewService(DefaultSuites()...)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = service.NextCase(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceRejectsInvalidSuite(t *testing.T) {
	t.Parallel()

	_, err := NewService(execution.Suite{
		Name:   "broken",
		Params: execution.ParameterSet{{Name: "d", Values: nil}},
	})
	if !errors.Is(err, execution.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFilterKeepsMatchingCases(t *testing.T) {
	t.Parallel()

	service, err := NewService(DefaultSuites()...)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	if err := service.Filter("fp16", "nothing-matches-this"); err != nil {
		t.Fatalf("Filter returned error: %v", err)
	}
	cases := service.Cases()
	if len(cases) != 6 {
		t.Fatalf("expected 6 fp16 cases, got %d", len(cases))
	}
	for _, tc := range cases {
		if tc.Suite != "classification_sample_async_fp16" {
			t.Fatalf("unexpected case after filter: %s", tc.ID())
		}
	}

	if err := service.Filter(); err != nil {
		t.Fatalf("empty filter returned error: %v", err)
	}
	if got := len(service.Cases()); got != 6 {
		t.Fatalf("empty filter must keep cases, got %d", got)
	}
}

func TestFilterWithoutMatchesIsConfigurationError(t *testing.T) {
	t.Parallel()

	service, err := NewService(DefaultSuites()...)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	err = service.Filter("fp64")
	if !errors.Is(err, ErrNoMatchingCases) || !errors.Is(err, execution.ErrConfiguration) {
		t.Fatalf("expected configuration error for unmatched filter, got %v", err)
	}
	if got := len(service.Cases()); got != 12 {
		t.Fatalf("failed filter must leave cases untouched, got %d", got)
	}
}
