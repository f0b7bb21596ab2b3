package backup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/grouplift/grouplift/internal/utils"
)

const (
	commandUseConstant                    = "backup <group>"
	commandShortDescriptionConstant       = "Export a distribution group snapshot to XML"
	commandLongDescriptionConstant        = "backup captures a distribution group's settings, membership, and send-as grants into a timestamped XML snapshot without modifying the directory."
	backupDirectoryFlagNameConstant       = "backup-dir"
	backupDirectoryFlagUsageConstant      = "Directory receiving snapshot files"
	gatewayProviderMissingMessageConstant = "directory gateway provider not configured"
	gatewayCreationErrorTemplateConstant  = "unable to construct directory gateway: %w"
	storeCreationErrorTemplateConstant    = "unable to construct snapshot store: %w"
	backupExecutionErrorTemplateConstant  = "backup failed: %w"
	backupCompletedMessageConstant        = "Snapshot export completed"
	logFieldGroupIdentityConstant         = "group_identity"
	logFieldSnapshotPathConstant          = "snapshot_path"
	logFieldMemberCountConstant           = "member_count"
	logFieldSendAsCountConstant           = "send_as_count"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// GatewayProvider constructs the directory gateway client.
type GatewayProvider func() (DirectoryGateway, error)

// ServiceProvider constructs a snapshot exporter from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (*Service, error)

type commandOptions struct {
	groupIdentity       string
	backupDirectory     string
	debugLoggingEnabled bool
}

// CommandBuilder assembles the backup Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	GatewayProvider       GatewayProvider
	ServiceProvider       ServiceProvider
	ConfigurationProvider func() CommandConfiguration
}

var errGatewayProviderMissing = errors.New(gatewayProviderMissingMessageConstant)

// Build constructs the backup command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runBackup,
	}

	command.Flags().String(backupDirectoryFlagNameConstant, "", backupDirectoryFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runBackup(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command, arguments)

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	if builder.GatewayProvider == nil {
		return errGatewayProviderMissing
	}

	gateway, gatewayError := builder.GatewayProvider()
	if gatewayError != nil {
		return fmt.Errorf(gatewayCreationErrorTemplateConstant, gatewayError)
	}

	snapshotStore, storeError := NewStore(options.backupDirectory)
	if storeError != nil {
		return fmt.Errorf(storeCreationErrorTemplateConstant, storeError)
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:  logger,
		Gateway: gateway,
		Store:   snapshotStore,
	})
	if serviceError != nil {
		return serviceError
	}

	result, exportError := service.Export(command.Context(), ExportOptions{GroupIdentity: options.groupIdentity})
	if exportError != nil {
		return fmt.Errorf(backupExecutionErrorTemplateConstant, exportError)
	}

	logger.Info(
		backupCompletedMessageConstant,
		zap.String(logFieldGroupIdentityConstant, options.groupIdentity),
		zap.String(logFieldSnapshotPathConstant, result.SnapshotPath),
		zap.Int(logFieldMemberCountConstant, result.MemberCount),
		zap.Int(logFieldSendAsCountConstant, result.SendAsCount),
	)

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) commandOptions {
	configuration := builder.resolveConfiguration()

	backupDirectory := configuration.BackupDirectory
	debugEnabled := false

	if command != nil {
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
		backupDirectory:     backupDirectory,
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
