package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(loadAppConfig()).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCasesFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// cli carries the configuration and logger shared by every subcommand.
type cli struct {
	cfg    appConfig
	logger *zap.Logger
}

func newRootCmd(cfg appConfig) *cobra.Command {
	app := &cli{cfg: cfg, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "samplesmoke",
		Short: "Smoke tests for inference sample programs",
		Long: `samplesmoke expands parameter matrices into test cases, runs the
classification sample once per case and checks that the top-1 class it
prints matches the expected one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(app.cfg.LogLevel)
			if err != nil {
				return err
			}
			app.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = app.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.cfg.Layout.BinDir, "bin-dir", cfg.Layout.BinDir, "directory with the compiled samples ($SAMPLES_BIN_DIR)")
	flags.StringVar(&app.cfg.Layout.PythonDir, "python-dir", cfg.Layout.PythonDir, "directory with the Python samples ($SAMPLES_PY_DIR)")
	flags.StringVar(&app.cfg.Layout.Python, "python", cfg.Layout.Python, "interpreter for Python samples ($SAMPLES_PYTHON)")
	flags.StringVar(&app.cfg.Layout.ModelsDir, "models-dir", cfg.Layout.ModelsDir, "root for model paths ($SAMPLES_MODELS_DIR)")
	flags.StringVar(&app.cfg.Layout.ImagesDir, "images-dir", cfg.Layout.ImagesDir, "root for input paths ($SAMPLES_IMAGES_DIR)")
	flags.StringVar(&app.cfg.Devices, "devices", cfg.Devices, "comma separated devices present on this host ($SAMPLES_DEVICES)")
	flags.StringVar(&app.cfg.DeviceProbe, "device-probe", cfg.DeviceProbe, `detect devices by running a query program; "query" uses hello_query_device ($SAMPLES_DEVICE_PROBE)`)
	flags.DurationVar(&app.cfg.Timeout, "timeout", cfg.Timeout, "per-case time limit ($SAMPLES_TIMEOUT)")
	flags.IntVar(&app.cfg.Parallel, "parallel", cfg.Parallel, "cases run concurrently ($SAMPLES_PARALLEL)")
	flags.IntVar(&app.cfg.MaxCases, "max-cases", cfg.MaxCases, "stop after this many cases, 0 for all ($SAMPLES_MAX_CASES)")
	flags.StringVar(&app.cfg.Compare, "compare", cfg.Compare, "top-1 comparison: exact or lenient ($SAMPLES_COMPARE)")
	flags.StringVar(&app.cfg.Runtime, "runtime", cfg.Runtime, "where samples run: process or docker ($SAMPLES_RUNTIME)")
	flags.StringVar(&app.cfg.DockerImage, "docker-image", cfg.DockerImage, "image for the docker runtime ($SAMPLES_DOCKER_IMAGE)")
	flags.StringSliceVar(&app.cfg.KafkaBrokers, "kafka-brokers", cfg.KafkaBrokers, "Kafka bootstrap servers ($KAFKA_BROKERS)")
	flags.StringVar(&app.cfg.CasesTopic, "cases-topic", cfg.CasesTopic, "topic case requests are read from ($KAFKA_TOPIC)")
	flags.StringVar(&app.cfg.ResultsTopic, "results-topic", cfg.ResultsTopic, "topic reports are written to ($KAFKA_RESULTS_TOPIC)")
	flags.StringVar(&app.cfg.GroupID, "group-id", cfg.GroupID, "Kafka consumer group ($KAFKA_GROUP_ID)")
	flags.StringVar(&app.cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error ($SAMPLES_LOG_LEVEL)")

	root.AddCommand(app.newRunCmd(), app.newListCmd(), app.newServeCmd())
	return root
}
