package polling_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grouplift/grouplift/internal/polling"
)

const (
	testConditionNameConstant       = "group removed from sync scope"
	testPollIntervalConstant        = time.Millisecond
	testSubtestNameTemplateConstant = "%d_%s"
)

func TestWaiterWaitUntilScenarios(testInstance *testing.T) {
	probeFailure := errors.New("probe failed")

	testCases := []struct {
		name             string
		attemptLimit     int
		successOnAttempt int
		probeError       error
		expectTimeout    bool
		expectError      error
		expectedAttempts int
	}{
		{
			name:             "condition_holds_immediately",
			attemptLimit:     5,
			successOnAttempt: 1,
			expectedAttempts: 1,
		},
		{
			name:             "condition_holds_after_retries",
			attemptLimit:     5,
			successOnAttempt: 3,
			expectedAttempts: 3,
		},
		{
			name:             "attempt_budget_exhausted",
			attemptLimit:     4,
			successOnAttempt: 0,
			expectTimeout:    true,
			expectedAttempts: 4,
		},
		{
			name:             "probe_error_stops_waiting",
			attemptLimit:     5,
			probeError:       probeFailure,
			expectError:      probeFailure,
			expectedAttempts: 1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			attemptCount := 0
			probe := func(context.Context) (bool, error) {
				attemptCount++
				if testCase.probeError != nil {
					return false, testCase.probeError
				}
				return testCase.successOnAttempt > 0 && attemptCount >= testCase.successOnAttempt, nil
			}

			waiter := polling.NewWaiter(zap.NewNop(), testPollIntervalConstant, testCase.attemptLimit)
			waitError := waiter.WaitUntil(context.Background(), testConditionNameConstant, probe)

			require.Equal(testInstance, testCase.expectedAttempts, attemptCount)

			switch {
			case testCase.expectTimeout:
				var timeoutError polling.TimeoutError
				require.ErrorAs(testInstance, waitError, &timeoutError)
				require.Equal(testInstance, testConditionNameConstant, timeoutError.Condition)
				require.Equal(testInstance, testCase.attemptLimit, timeoutError.AttemptCount)
			case testCase.expectError != nil:
				require.ErrorIs(testInstance, waitError, testCase.expectError)
			default:
				require.NoError(testInstance, waitError)
			}
		})
	}
}

func TestWaiterWaitUntilHonorsContextCancellation(testInstance *testing.T) {
	cancellableContext, cancelFunction := context.WithCancel(context.Background())

	probe := func(context.Context) (bool, error) {
		cancelFunction()
		return false, nil
	}

	waiter := polling.NewWaiter(zap.NewNop(), time.Minute, 10)
	waitError := waiter.WaitUntil(cancellableContext, testConditionNameConstant, probe)

	require.ErrorIs(testInstance, waitError, context.Canceled)
}
