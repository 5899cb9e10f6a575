package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"samplesmoke/internal/runtime/process"
	"samplesmoke/internal/runtime/samples"
)

const (
	defaultPython        = "python3"
	defaultDevices       = "CPU"
	defaultRuntime       = runtimeProcess
	defaultDockerImage   = "openvino/ubuntu22_runtime:latest"
	defaultKafkaBrokers  = "kafka:9092"
	defaultCasesTopic    = "sample-cases"
	defaultResultsTopic  = "sample-reports"
	defaultKafkaGroupID  = "samplesmoke-runner"
	defaultLogLevel      = "info"
	deviceProbeQuery     = "query"
	helloQueryDeviceName = "hello_query_device"

	runtimeProcess = "process"
	runtimeDocker  = "docker"
)

type appConfig struct {
	Layout samples.Layout
	// Devices is the static device list used when no probe command is set.
	Devices string
	// DeviceProbe is empty for the static list, "query" for
	// <bin-dir>/hello_query_device, or the path of a query program.
	DeviceProbe  string
	Timeout      time.Duration
	Parallel     int
	MaxCases     int
	Compare      string
	Runtime      string
	DockerImage  string
	KafkaBrokers []string
	CasesTopic   string
	ResultsTopic string
	GroupID      string
	LogLevel     string
}

func loadAppConfig() appConfig {
	return appConfig{
		Layout: samples.Layout{
			BinDir:    os.Getenv("SAMPLES_BIN_DIR"),
			PythonDir: os.Getenv("SAMPLES_PY_DIR"),
			Python:    envOrDefault("SAMPLES_PYTHON", defaultPython),
			ModelsDir: os.Getenv("SAMPLES_MODELS_DIR"),
			ImagesDir: os.Getenv("SAMPLES_IMAGES_DIR"),
		},
		Devices:      envOrDefault("SAMPLES_DEVICES", defaultDevices),
		DeviceProbe:  os.Getenv("SAMPLES_DEVICE_PROBE"),
		Timeout:      parseDuration(os.Getenv("SAMPLES_TIMEOUT"), process.DefaultTimeLimit),
		Parallel:     parseMaxParallel(os.Getenv("SAMPLES_PARALLEL")),
		MaxCases:     parseMaxCases(os.Getenv("SAMPLES_MAX_CASES")),
		Compare:      os.Getenv("SAMPLES_COMPARE"),
		Runtime:      envOrDefault("SAMPLES_RUNTIME", defaultRuntime),
		DockerImage:  envOrDefault("SAMPLES_DOCKER_IMAGE", defaultDockerImage),
		KafkaBrokers: parseBrokerList(envOrDefault("KAFKA_BROKERS", defaultKafkaBrokers)),
		CasesTopic:   envOrDefault("KAFKA_TOPIC", defaultCasesTopic),
		ResultsTopic: envOrDefault("KAFKA_RESULTS_TOPIC", defaultResultsTopic),
		GroupID:      envOrDefault("KAFKA_GROUP_ID", defaultKafkaGroupID),
		LogLevel:     envOrDefault("SAMPLES_LOG_LEVEL", defaultLogLevel),
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseBrokerList(raw string) []string {
	fields := strings.Split(raw, ",")
	brokers := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

func parseMaxCases(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	if value < 0 {
		return 0
	}
	return value
}

func parseMaxParallel(raw string) int {
	if raw == "" {
		return 1
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 1
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
