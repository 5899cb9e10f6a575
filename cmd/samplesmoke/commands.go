package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"samplesmoke/internal/app/producer"
	"samplesmoke/internal/domain/execution"
	kafkainfra "samplesmoke/internal/infra/kafka"
)

func (app *cli) newRunCmd() *cobra.Command {
	var (
		suitesFile string
		publish    bool
	)

	cmd := &cobra.Command{
		Use:   "run [filter...]",
		Short: "Run the smoke suites and verify every case",
		Long: `Runs every case of the built-in suites, or of the suites in --suites.
Arguments keep only cases whose ID contains one of them. The command fails
when any case fails or errors; skipped cases do not count as failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := app.catalogue(suitesFile, args)
			if err != nil {
				return err
			}

			h, err := newHarness(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := h.Close(); cerr != nil {
					app.logger.Warn("failed to close runtime", zap.Error(cerr))
				}
			}()

			var publisher *kafkainfra.Publisher
			if publish {
				publisher, err = kafkainfra.NewPublisher(kafkainfra.PublisherConfig{
					Brokers: app.cfg.KafkaBrokers,
					Topic:   app.cfg.ResultsTopic,
					Logger:  app.logger,
				})
				if err != nil {
					return fmt.Errorf("failed to initialize kafka publisher: %w", err)
				}
				defer func() {
					if cerr := publisher.Close(); cerr != nil {
						app.logger.Warn("failed to close kafka publisher", zap.Error(cerr))
					}
				}()
			}

			ctx := cmd.Context()
			summary := newSummary(cmd.OutOrStdout())
			err = h.service.ExecuteFromProducer(ctx, catalogue, app.cfg.MaxCases, app.cfg.Parallel, func(report execution.RunReport) {
				summary.Record(report)
				if publisher == nil {
					return
				}
				if perr := publisher.PublishRunReport(ctx, report); perr != nil {
					app.logger.Error("failed to publish report", zap.String("case", report.Case.ID()), zap.Error(perr))
				}
			})
			if err != nil {
				return fmt.Errorf("failed to execute cases: %w", err)
			}

			return summary.Finish(h.service.RunID())
		},
	}

	cmd.Flags().StringVar(&suitesFile, "suites", "", "YAML file with suite definitions")
	cmd.Flags().BoolVar(&publish, "publish", false, "also publish every report to the results topic")
	return cmd
}

func (app *cli) newListCmd() *cobra.Command {
	var suitesFile string

	cmd := &cobra.Command{
		Use:   "list [filter...]",
		Short: "Print the IDs of the expanded cases without running them",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := app.catalogue(suitesFile, args)
			if err != nil {
				return err
			}
			for _, tc := range catalogue.Cases() {
				fmt.Fprintln(cmd.OutOrStdout(), tc.ID())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&suitesFile, "suites", "", "YAML file with suite definitions")
	return cmd
}

func (app *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run cases requested over Kafka and publish their reports",
		Long: `Consumes case and suite requests from the cases topic until a "done"
message arrives or the process is interrupted, publishing one report per case
to the results topic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHarness(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := h.Close(); cerr != nil {
					app.logger.Warn("failed to close runtime", zap.Error(cerr))
				}
			}()

			ctx := cmd.Context()
			publisher, err := kafkainfra.NewPublisher(kafkainfra.PublisherConfig{
				Brokers: app.cfg.KafkaBrokers,
				Topic:   app.cfg.ResultsTopic,
				Logger:  app.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize kafka publisher: %w", err)
			}
			defer func() {
				if cerr := publisher.Close(); cerr != nil {
					app.logger.Warn("failed to close kafka publisher", zap.Error(cerr))
				}
			}()

			publishRejection := func(report execution.RunReport) {
				report.RunID = h.service.RunID()
				if perr := publisher.PublishRunReport(ctx, report); perr != nil {
					app.logger.Error("failed to publish rejection", zap.String("suite", report.Case.Suite), zap.Error(perr))
				}
			}
			consumer, err := kafkainfra.NewConsumer(kafkainfra.Config{
				Brokers:    app.cfg.KafkaBrokers,
				Topic:      app.cfg.CasesTopic,
				GroupID:    app.cfg.GroupID,
				Logger:     app.logger,
				OnRejected: publishRejection,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize kafka consumer: %w", err)
			}
			defer func() {
				if cerr := consumer.Close(); cerr != nil {
					app.logger.Warn("failed to close kafka consumer", zap.Error(cerr))
				}
			}()

			app.logger.Info("serving case requests",
				zap.Strings("brokers", app.cfg.KafkaBrokers),
				zap.String("topic", app.cfg.CasesTopic),
				zap.String("run_id", h.service.RunID()),
			)
			err = h.service.ExecuteFromProducer(ctx, consumer, app.cfg.MaxCases, app.cfg.Parallel, func(report execution.RunReport) {
				app.logger.Info("case finished",
					zap.String("case", report.Case.ID()),
					zap.String("status", string(report.Status)),
				)
				if perr := publisher.PublishRunReport(ctx, report); perr != nil {
					app.logger.Error("failed to publish report", zap.String("case", report.Case.ID()), zap.Error(perr))
				}
			})
			if err != nil {
				return fmt.Errorf("failed to execute cases: %w", err)
			}
			return nil
		},
	}
}

func (app *cli) catalogue(suitesFile string, filters []string) (*producer.Service, error) {
	suites, err := loadSuites(suitesFile)
	if err != nil {
		return nil, err
	}
	catalogue, err := producer.NewService(suites...)
	if err != nil {
		return nil, err
	}
	if err := catalogue.Filter(filters...); err != nil {
		return nil, err
	}
	return catalogue, nil
}
