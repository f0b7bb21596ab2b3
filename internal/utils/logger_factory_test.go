package utils_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grouplift/grouplift/internal/utils"
)

const (
	testLoggerFactoryCaseSupportedTemplateConstant = "supported_log_level_%s_format_%s"
	testLoggerFactoryCaseUnsupportedLevelConstant  = "unsupported_log_level"
	testLoggerFactoryCaseUnsupportedFormatConstant = "unsupported_log_format"
	testLoggerFactoryCaseBlankDefaultsConstant     = "blank_values_default_to_info_structured"
	testLoggerFactoryCaseMixedCaseConstant         = "mixed_case_values_normalized"
	testLoggerFactorySubtestTemplateConstant       = "%d_%s"
	testInvalidLogLevelConstant                    = "invalid"
	testInvalidLogFormatConstant                   = "invalid"
	testMixedCaseLogLevelConstant                  = " Debug "
	testMixedCaseLogFormatConstant                 = "Console"
	testExpectedLoggerNameConstant                 = "grouplift"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name               string
		requestedLogLevel  utils.LogLevel
		requestedLogFormat utils.LogFormat
		expectError        bool
	}{
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedTemplateConstant, utils.LogLevelDebug, utils.LogFormatStructured),
			requestedLogLevel:  utils.LogLevelDebug,
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        false,
		},
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedTemplateConstant, utils.LogLevelInfo, utils.LogFormatConsole),
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormatConsole,
			expectError:        false,
		},
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedTemplateConstant, utils.LogLevelWarn, utils.LogFormatStructured),
			requestedLogLevel:  utils.LogLevelWarn,
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        false,
		},
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedTemplateConstant, utils.LogLevelError, utils.LogFormatStructured),
			requestedLogLevel:  utils.LogLevelError,
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        false,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedLevelConstant,
			requestedLogLevel:  utils.LogLevel(testInvalidLogLevelConstant),
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        true,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedFormatConstant,
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormat(testInvalidLogFormatConstant),
			expectError:        true,
		},
		{
			name:               testLoggerFactoryCaseBlankDefaultsConstant,
			requestedLogLevel:  utils.LogLevel(""),
			requestedLogFormat: utils.LogFormat(""),
			expectError:        false,
		},
		{
			name:               testLoggerFactoryCaseMixedCaseConstant,
			requestedLogLevel:  utils.LogLevel(testMixedCaseLogLevelConstant),
			requestedLogFormat: utils.LogFormat(testMixedCaseLogFormatConstant),
			expectError:        false,
		},
	}

	loggerFactory := utils.NewLoggerFactory()

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			createdLogger, creationError := loggerFactory.CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)

			if testCase.expectError {
				require.Error(testInstance, creationError)
				require.Nil(testInstance, createdLogger)
				return
			}

			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, createdLogger)
			require.Equal(testInstance, testExpectedLoggerNameConstant, createdLogger.Name())
		})
	}
}
