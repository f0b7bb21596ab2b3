package clone

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
	commandUseConstant                    = "clone <group>"
	commandShortDescriptionConstant       = "Create a cloud-only copy of a synced distribution group"
	commandLongDescriptionConstant        = "clone copies a directory-synchronized distribution group into a new cloud-only group under a prefixed identity, duplicating settings, membership, and send-as grants while leaving the source untouched."
	prefixFlagNameConstant                = "prefix"
	prefixFlagUsageConstant               = "Prefix applied to the clone's alias, display name, and address"
	copySendAsFlagNameConstant            = "copy-send-as"
	copySendAsFlagUsageConstant           = "Copy send-as grants onto the clone"
	gatewayProviderMissingMessageConstant = "directory gateway provider not configured"
	gatewayCreationErrorTemplateConstant  = "unable to construct directory gateway: %w"
	cloneExecutionErrorTemplateConstant   = "clone failed: %w"
	cloneCompletedMessageConstant         = "Clone completed"
	logFieldSourceIdentityConstant        = "source_identity"
	logFieldMemberCountConstant           = "member_count"
	logFieldSendAsCountConstant           = "send_as_count"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// GatewayProvider constructs the directory gateway client.
type GatewayProvider func() (DirectoryGateway, error)

// ServiceProvider constructs a clone service from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (*Service, error)

type commandOptions struct {
	sourceIdentity      string
	prefix              string
	copySendAs          bool
	debugLoggingEnabled bool
}

// CommandBuilder assembles the clone Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	GatewayProvider       GatewayProvider
	ServiceProvider       ServiceProvider
	ConfigurationProvider func() CommandConfiguration
}

var errGatewayProviderMissing = errors.New(gatewayProviderMissingMessageConstant)

// Build constructs the clone command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runClone,
	}

	command.Flags().String(prefixFlagNameConstant, "", prefixFlagUsageConstant)
	command.Flags().Bool(copySendAsFlagNameConstant, true, copySendAsFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runClone(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command, arguments)

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	if builder.GatewayProvider == nil {
		return errGatewayProviderMissing
	}

	gateway, gatewayError := builder.GatewayProvider()
	if gatewayError != nil {
		return fmt.Errorf(gatewayCreationErrorTemplateConstant, gatewayError)
	}

	service, serviceError := builder.resolveService(ServiceDependencies{Logger: logger, Gateway: gateway})
	if serviceError != nil {
		return serviceError
	}

	result, cloneError := service.Clone(command.Context(), CloneOptions{
		SourceIdentity: options.sourceIdentity,
		Prefix:         options.prefix,
		CopySendAs:     options.copySendAs,
	})
	if cloneError != nil {
		return fmt.Errorf(cloneExecutionErrorTemplateConstant, cloneError)
	}

	logger.Info(
		cloneCompletedMessageConstant,
		zap.String(logFieldSourceIdentityConstant, options.sourceIdentity),
		zap.String(logFieldCloneIdentifierConstant, result.CloneID),
		zap.String(logFieldCloneAddressConstant, result.CloneAddress),
		zap.Int(logFieldMemberCountConstant, result.MemberCount),
		zap.Int(logFieldSendAsCountConstant, result.SendAsCount),
	)

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) commandOptions {
	configuration := builder.resolveConfiguration()

	prefix := configuration.Prefix
	copySendAs := configuration.CopySendAs
	debugEnabled := false

	if command != nil {
		if command.Flags().Changed(prefixFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(prefixFlagNameConstant)
			if len(strings.TrimSpace(flagValue)) > 0 {
				prefix = strings.TrimSpace(flagValue)
			}
		}

		if command.Flags().Changed(copySendAsFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(copySendAsFlagNameConstant)
			copySendAs = flagValue
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
		copySendAs:          copySendAs,
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
