//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"

	"samplesmoke/internal/app/executor"
	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/infra/devices"
	kafkainfra "samplesmoke/internal/infra/kafka"
	"samplesmoke/internal/runtime/process"
	"samplesmoke/internal/runtime/samples"
	"samplesmoke/internal/testhelpers"
)

const sampleName = "classification_sample_async"

func TestPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	const (
		casesTopic   = "integration-cases"
		resultsTopic = "integration-results"
	)
	broker := testhelpers.StartKafka(ctx, t, casesTopic, resultsTopic)
	layout := buildSampleLayout(t)

	engine := process.New(process.Config{
		DefaultLimits: execution.RunLimits{TimeLimit: 30 * time.Second},
		Logger:        zaptest.NewLogger(t),
	})
	runner, err := samples.New(samples.Config{
		Layout:   layout,
		Variants: []string{samples.VariantCPP},
	}, engine)
	if err != nil {
		t.Fatalf("samples.New: %v", err)
	}

	service := executor.NewService(runner, devices.NewStatic("CPU"), executor.Config{
		RunID:  "pipeline-run",
		Logger: zaptest.NewLogger(t),
	})
	defer service.Close()

	consumer, err := kafkainfra.NewConsumer(kafkainfra.Config{
		Brokers: []string{broker},
		Topic:   casesTopic,
		GroupID: "pipeline-integration-consumer",
		Logger:  zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	defer consumer.Close()

	publisher, err := kafkainfra.NewPublisher(kafkainfra.PublisherConfig{
		Brokers: []string{broker},
		Topic:   resultsTopic,
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer publisher.Close()

	execCtx, execCancel := context.WithCancel(ctx)
	defer execCancel()

	errCh := make(chan error, 1)
	sendErr := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	go func() {
		defer execCancel()
		err := service.ExecuteFromProducer(execCtx, consumer, 0, 2, func(report execution.RunReport) {
			if pubErr := publisher.PublishRunReport(execCtx, report); pubErr != nil {
				sendErr(fmt.Errorf("publish run report: %w", pubErr))
				execCancel()
			}
		})
		sendErr(err)
	}()

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(broker),
		Topic:                  casesTopic,
		AllowAutoTopicCreation: false,
		Balancer:               &kafkago.LeastBytes{},
	}
	defer writer.Close()

	requests := []map[string]any{
		{
			"type":          "suite",
			"suite":         "pipeline",
			"sample":        sampleName,
			"expected_top1": "215",
			"options": []map[string]any{
				{"name": "i", "values": []string{"227x227/dog.bmp"}},
				{"name": "m", "values": []string{"squeezenet1.1/model.xml"}},
				{"name": "batch", "values": []string{"1", "2"}},
				{"name": "d", "values": []string{"CPU"}},
			},
			"device_keys": []string{"d"},
		},
		{
			"type":   "case",
			"suite":  "pipeline_gpu",
			"sample": sampleName,
			"params": []map[string]any{
				{"name": "i", "value": "227x227/dog.bmp"},
				{"name": "m", "value": "squeezenet1.1/model.xml"},
				{"name": "d", "value": "GPU"},
			},
			"expected_top1": "215",
			"device_keys":   []string{"d"},
		},
		{"type": "done"},
	}

	msgs := make([]kafkago.Message, 0, len(requests))
	for _, req := range requests {
		payload, err := json.Marshal(req)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		msgs = append(msgs, kafkago.Message{Value: payload})
	}
	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		t.Fatalf("write case requests: %v", err)
	}

	resultsReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   resultsTopic,
		GroupID: "pipeline-integration-results",
	})
	defer resultsReader.Close()

	msgCtx, msgCancel := context.WithTimeout(ctx, time.Minute)
	defer msgCancel()

	statuses := map[string]execution.Status{}
	for len(statuses) < 3 {
		msg, err := resultsReader.ReadMessage(msgCtx)
		if err != nil {
			t.Fatalf("read result message: %v", err)
		}

		var envelope struct {
			RunID    string           `json:"run_id"`
			ID       string           `json:"id"`
			Status   execution.Status `json:"status"`
			Detected string           `json:"detected"`
			Error    string           `json:"error"`
		}
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			t.Fatalf("decode result message: %v", err)
		}
		if envelope.RunID != "pipeline-run" {
			t.Fatalf("unexpected run id %q", envelope.RunID)
		}
		if envelope.Status == execution.StatusPass && envelope.Detected != "215" {
			t.Fatalf("%s: passed with detected class %q", envelope.ID, envelope.Detected)
		}
		statuses[envelope.ID] = envelope.Status
		t.Logf("%s: %s %s", envelope.ID, envelope.Status, envelope.Error)
	}

	want := map[string]execution.Status{
		"pipeline[i=227x227/dog.bmp-m=squeezenet1.1/model.xml-batch=1-d=CPU]": execution.StatusPass,
		"pipeline[i=227x227/dog.bmp-m=squeezenet1.1/model.xml-batch=2-d=CPU]": execution.StatusPass,
		"pipeline_gpu[i=227x227/dog.bmp-m=squeezenet1.1/model.xml-d=GPU]":     execution.StatusSkip,
	}
	for id, status := range want {
		if statuses[id] != status {
			t.Fatalf("case %s: expected %q, got %q", id, status, statuses[id])
		}
	}

	if err := <-errCh; err != nil {
		t.Fatalf("pipeline execution error: %v", err)
	}
}

// buildSampleLayout compiles the fake classification sample into a temporary
// samples tree with the model and image the requests refer to.
func buildSampleLayout(t *testing.T) samples.Layout {
	t.Helper()

	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skipf("go toolchain unavailable: %v", err)
	}

	root := t.TempDir()
	layout := samples.Layout{
		BinDir:    filepath.Join(root, "bin"),
		ModelsDir: filepath.Join(root, "models"),
		ImagesDir: filepath.Join(root, "images"),
	}

	build := exec.Command(goBin, "build", "-o", filepath.Join(layout.BinDir, sampleName), "../simulator/fakesample")
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("build fake sample: %v\n%s", err, out)
	}

	for path, content := range map[string]string{
		filepath.Join(layout.ModelsDir, "squeezenet1.1", "model.xml"): "<net/>",
		filepath.Join(layout.ImagesDir, "227x227", "dog.bmp"):         "BM",
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return layout
}
