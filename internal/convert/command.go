package convert

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/grouplift/grouplift/internal/backup"
	"github.com/grouplift/grouplift/internal/polling"
	"github.com/grouplift/grouplift/internal/utils"
)

const (
	commandUseConstant                    = "convert <group>"
	commandShortDescriptionConstant       = "Convert a synced distribution group to cloud-only"
	commandLongDescriptionConstant        = "convert backs the group up to XML, removes it from synchronization scope, waits for the synced object to disappear, recreates it cloud-only under a temporary prefix, restores membership and send-as grants, and strips the prefix."
	prefixFlagNameConstant                = "prefix"
	prefixFlagUsageConstant               = "Temporary prefix applied while the conversion is in flight"
	backupDirectoryFlagNameConstant       = "backup-dir"
	backupDirectoryFlagUsageConstant      = "Directory receiving the pre-conversion snapshot"
	gatewayProviderMissingMessageConstant = "directory gateway provider not configured"
	gatewayCreationErrorTemplateConstant  = "unable to construct directory gateway: %w"
	storeCreationErrorTemplateConstant    = "unable to construct snapshot store: %w"
	convertExecutionErrorTemplateConstant = "convert failed: %w"
	convertCompletedMessageConstant       = "Conversion completed"
	logFieldSourceIdentityConstant        = "source_identity"
	logFieldMemberCountConstant           = "member_count"
	logFieldSendAsCountConstant           = "send_as_count"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// GatewayProvider constructs the directory gateway client.
type GatewayProvider func() (DirectoryGateway, error)

// ServiceProvider constructs a conversion service from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (*Service, error)

type commandOptions struct {
	sourceIdentity      string
	prefix              string
	backupDirectory     string
	exclusionValue      string
	pollInterval        time.Duration
	pollAttemptLimit    int
	debugLoggingEnabled bool
}

// CommandBuilder assembles the convert Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	GatewayProvider       GatewayProvider
	ServiceProvider       ServiceProvider
	ConfigurationProvider func() CommandConfiguration
}

var errGatewayProviderMissing = errors.New(gatewayProviderMissingMessageConstant)

// Build constructs the convert command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runConvert,
	}

	command.Flags().String(prefixFlagNameConstant, "", prefixFlagUsageConstant)
	command.Flags().String(backupDirectoryFlagNameConstant, "", backupDirectoryFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runConvert(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command, arguments)

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	if builder.GatewayProvider == nil {
		return errGatewayProviderMissing
	}

	gateway, gatewayError := builder.GatewayProvider()
	if gatewayError != nil {
		return fmt.Errorf(gatewayCreationErrorTemplateConstant, gatewayError)
	}

	snapshotStore, storeError := backup.NewStore(options.backupDirectory)
	if storeError != nil {
		return fmt.Errorf(storeCreationErrorTemplateConstant, storeError)
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:  logger,
		Gateway: gateway,
		Store:   snapshotStore,
		Waiter:  polling.NewWaiter(logger, options.pollInterval, options.pollAttemptLimit),
	})
	if serviceError != nil {
		return serviceError
	}

	result, convertError := service.Convert(command.Context(), ConvertOptions{
		SourceIdentity: options.sourceIdentity,
		Prefix:         options.prefix,
		ExclusionValue: options.exclusionValue,
	})
	if convertError != nil {
		return fmt.Errorf(convertExecutionErrorTemplateConstant, convertError)
	}

	logger.Info(
		convertCompletedMessageConstant,
		zap.String(logFieldSourceIdentityConstant, options.sourceIdentity),
		zap.String(logFieldGroupIdentifierConstant, result.GroupID),
		zap.String(logFieldSnapshotPathConstant, result.SnapshotPath),
		zap.Int(logFieldMemberCountConstant, result.MemberCount),
		zap.Int(logFieldSendAsCountConstant, result.SendAsCount),
	)

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) commandOptions {
	configuration := builder.resolveConfiguration()

	prefix := configuration.Prefix
	backupDirectory := configuration.BackupDirectory
	debugEnabled := false

	if command != nil {
		if command.Flags().Changed(prefixFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(prefixFlagNameConstant)
			if len(strings.TrimSpace(flagValue)) > 0 {
				prefix = strings.TrimSpace(flagValue)
			}
		}

		if command.Flags().Changed(backupDirectoryFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(backupDirectoryFlagNameConstant)
			if len(strings.TrimSpace(flagValue)) > 0 {
				backupDirectory = strings.TrimSpace(flagValue)
			}
		}

		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
				debugEnabled = true
			}
		}
	}

	sourceIdentity := ""
	if len(arguments) > 0 {
		sourceIdentity = strings.TrimSpace(arguments[0])
	}

	return commandOptions{
		sourceIdentity:      sourceIdentity,
		prefix:              prefix,
		backupDirectory:     backupDirectory,
		exclusionValue:      configuration.ExclusionValue,
		pollInterval:        time.Duration(configuration.PollIntervalSeconds) * time.Second,
		pollAttemptLimit:    configuration.PollAttemptLimit,
		debugLoggingEnabled: debugEnabled,
	}
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (*Service, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}
