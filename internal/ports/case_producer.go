package ports

import (
	"context"

	"samplesmoke/internal/domain/execution"
)

// CaseProducer yields test cases one at a time and returns io.EOF when exhausted.
type CaseProducer interface {
	NextCase(ctx context.Context) (execution.TestCase, error)
}
