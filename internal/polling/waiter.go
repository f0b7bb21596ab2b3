package polling

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	timeoutErrorTemplateConstant         = "condition %q not met after %d attempts"
	waitAttemptLogMessageConstant        = "Waiting for directory convergence"
	conditionFieldNameConstant           = "condition"
	attemptFieldNameConstant             = "attempt"
	attemptLimitFieldNameConstant        = "attempt_limit"
	defaultPollIntervalConstant          = 30 * time.Second
	defaultPollAttemptLimitConstant      = 40
	minimumPollAttemptCountValueConstant = 1
)

// Probe reports whether the awaited condition holds.
type Probe func(executionContext context.Context) (bool, error)

// TimeoutError indicates the awaited condition never held within the attempt budget.
type TimeoutError struct {
	Condition    string
	AttemptCount int
}

// Error describes the exhausted wait.
func (timeoutError TimeoutError) Error() string {
	return fmt.Sprintf(timeoutErrorTemplateConstant, timeoutError.Condition, timeoutError.AttemptCount)
}

// Waiter repeats probes at a fixed interval until success or attempt exhaustion.
type Waiter struct {
	logger       *zap.Logger
	pollInterval time.Duration
	attemptLimit int
}

// NewWaiter constructs a Waiter, normalizing out-of-range settings to defaults.
func NewWaiter(logger *zap.Logger, pollInterval time.Duration, attemptLimit int) *Waiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollIntervalConstant
	}
	if attemptLimit < minimumPollAttemptCountValueConstant {
		attemptLimit = defaultPollAttemptLimitConstant
	}

	return &Waiter{logger: logger, pollInterval: pollInterval, attemptLimit: attemptLimit}
}

// WaitUntil runs the probe until it reports success, the attempt budget is spent,
// or the context ends. The probe runs once per attempt; attempts are separated by
// the fixed interval.
func (waiter *Waiter) WaitUntil(executionContext context.Context, condition string, probe Probe) error {
	for attemptNumber := 1; attemptNumber <= waiter.attemptLimit; attemptNumber++ {
		conditionHolds, probeError := probe(executionContext)
		if probeError != nil {
			return probeError
		}
		if conditionHolds {
			return nil
		}

		waiter.logger.Debug(
			waitAttemptLogMessageConstant,
			zap.String(conditionFieldNameConstant, condition),
			zap.Int(attemptFieldNameConstant, attemptNumber),
			zap.Int(attemptLimitFieldNameConstant, waiter.attemptLimit),
		)

		if attemptNumber == waiter.attemptLimit {
			break
		}

		intervalTimer := time.NewTimer(waiter.pollInterval)
		select {
		case <-executionContext.Done():
			intervalTimer.Stop()
			return executionContext.Err()
		case <-intervalTimer.C:
		}
	}

	return TimeoutError{Condition: condition, AttemptCount: waiter.attemptLimit}
}
