package racemetrics

import (
	"context"
	"time"
)

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOpMetrics) RecordFrameDecoded(context.Context, string)                             {}
func (NoOpMetrics) RecordFrameRejected(context.Context, string)                            {}
func (NoOpMetrics) RecordEventDropped(context.Context)                                     {}
func (NoOpMetrics) RecordViewRecompute(context.Context, string, time.Duration)             {}
