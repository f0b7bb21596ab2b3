package restore

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
	commandUseConstant                    = "restore <group>"
	commandShortDescriptionConstant       = "Recreate a distribution group from an XML snapshot"
	commandLongDescriptionConstant        = "restore reads a snapshot file (the newest one for the group unless --file names one) and recreates the group under its original identity, re-adding membership and send-as grants. An existing recipient under that identity aborts the restore."
	snapshotFileFlagNameConstant          = "file"
	snapshotFileFlagUsageConstant         = "Snapshot file to restore from"
	backupDirectoryFlagNameConstant       = "backup-dir"
	backupDirectoryFlagUsageConstant      = "Directory searched for snapshot files"
	gatewayProviderMissingMessageConstant = "directory gateway provider not configured"
	gatewayCreationErrorTemplateConstant  = "unable to construct directory gateway: %w"
	storeCreationErrorTemplateConstant    = "unable to construct snapshot store: %w"
	restoreExecutionErrorTemplateConstant = "restore failed: %w"
	restoreCompletedMessageConstant       = "Restore completed"
	logFieldMemberCountConstant           = "member_count"
	logFieldSendAsCountConstant           = "send_as_count"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// GatewayProvider constructs the directory gateway client.
type GatewayProvider func() (DirectoryGateway, error)

// ServiceProvider constructs a restore service from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (*Service, error)

type commandOptions struct {
	groupIdentity       string
	snapshotPath        string
	backupDirectory     string
	pollInterval        time.Duration
	pollAttemptLimit    int
	debugLoggingEnabled bool
}

// CommandBuilder assembles the restore Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	GatewayProvider       GatewayProvider
	ServiceProvider       ServiceProvider
	ConfigurationProvider func() CommandConfiguration
}

var errGatewayProviderMissing = errors.New(gatewayProviderMissingMessageConstant)

// Build constructs the restore command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runRestore,
	}

	command.Flags().String(snapshotFileFlagNameConstant, "", snapshotFileFlagUsageConstant)
	command.Flags().String(backupDirectoryFlagNameConstant, "", backupDirectoryFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runRestore(command *cobra.Command, arguments []string) error {
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

	result, restoreError := service.Restore(command.Context(), RestoreOptions{
		GroupIdentity: options.groupIdentity,
		SnapshotPath:  options.snapshotPath,
	})
	if restoreError != nil {
		return fmt.Errorf(restoreExecutionErrorTemplateConstant, restoreError)
	}

	logger.Info(
		restoreCompletedMessageConstant,
		zap.String(logFieldGroupIdentifierConstant, result.GroupID),
		zap.String(logFieldGroupAddressConstant, result.GroupAddress),
		zap.String(logFieldSnapshotPathConstant, result.SnapshotPath),
		zap.Int(logFieldMemberCountConstant, result.MemberCount),
		zap.Int(logFieldSendAsCountConstant, result.SendAsCount),
	)

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) commandOptions {
	configuration := builder.resolveConfiguration()

	snapshotPath := ""
	backupDirectory := configuration.BackupDirectory
	debugEnabled := false

	if command != nil {
		if command.Flags().Changed(snapshotFileFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(snapshotFileFlagNameConstant)
			snapshotPath = strings.TrimSpace(flagValue)
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

	groupIdentity := ""
	if len(arguments) > 0 {
		groupIdentity = strings.TrimSpace(arguments[0])
	}

	return commandOptions{
		groupIdentity:       groupIdentity,
		snapshotPath:        snapshotPath,
		backupDirectory:     backupDirectory,
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
