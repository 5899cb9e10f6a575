package ports

import (
	"context"

	"samplesmoke/internal/domain/execution"
)

// RunReportPublisher publishes case reports to an external system.
type RunReportPublisher interface {
	PublishRunReport(ctx context.Context, report execution.RunReport) error
	Close() error
}
