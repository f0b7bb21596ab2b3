package contact

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
	commandUseConstant                    = "contact <group>"
	commandShortDescriptionConstant       = "Create a mail contact placeholder for a group address"
	commandLongDescriptionConstant        = "contact provisions a mail contact whose external address routes to the group's address on the routing domain, keeping mail flowing while the group is migrated."
	prefixFlagNameConstant                = "prefix"
	prefixFlagUsageConstant               = "Prefix applied to the contact alias"
	routingDomainFlagNameConstant         = "routing-domain"
	routingDomainFlagUsageConstant        = "Domain receiving routed mail for the contact"
	hideFlagNameConstant                  = "hide"
	hideFlagUsageConstant                 = "Hide the contact from address lists"
	gatewayProviderMissingMessageConstant = "directory gateway provider not configured"
	gatewayCreationErrorTemplateConstant  = "unable to construct directory gateway: %w"
	contactExecutionErrorTemplateConstant = "contact creation failed: %w"
	contactCompletedMessageConstant       = "Contact placeholder completed"
	logFieldSourceIdentityConstant        = "source_identity"
	logFieldContactAliasConstant          = "contact_alias"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// GatewayProvider constructs the directory gateway client.
type GatewayProvider func() (DirectoryGateway, error)

// ServiceProvider constructs a contact service from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (*Service, error)

type commandOptions struct {
	sourceIdentity       string
	prefix               string
	routingDomain        string
	hideFromAddressLists bool
	debugLoggingEnabled  bool
}

// CommandBuilder assembles the contact Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	GatewayProvider       GatewayProvider
	ServiceProvider       ServiceProvider
	ConfigurationProvider func() CommandConfiguration
}

var errGatewayProviderMissing = errors.New(gatewayProviderMissingMessageConstant)

// Build constructs the contact command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runContact,
	}

	command.Flags().String(prefixFlagNameConstant, "", prefixFlagUsageConstant)
	command.Flags().String(routingDomainFlagNameConstant, "", routingDomainFlagUsageConstant)
	command.Flags().Bool(hideFlagNameConstant, true, hideFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runContact(command *cobra.Command, arguments []string) error {
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

	result, contactError := service.Create(command.Context(), ContactOptions{
		SourceIdentity:       options.sourceIdentity,
		Prefix:               options.prefix,
		RoutingDomain:        options.routingDomain,
		HideFromAddressLists: options.hideFromAddressLists,
	})
	if contactError != nil {
		return fmt.Errorf(contactExecutionErrorTemplateConstant, contactError)
	}

	logger.Info(
		contactCompletedMessageConstant,
		zap.String(logFieldSourceIdentityConstant, options.sourceIdentity),
		zap.String(logFieldContactIdentifierConstant, result.ContactID),
		zap.String(logFieldContactAliasConstant, result.ContactAlias),
		zap.String(logFieldExternalAddressConstant, result.ExternalAddress),
	)

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) commandOptions {
	configuration := builder.resolveConfiguration()

	prefix := configuration.Prefix
	routingDomain := configuration.RoutingDomain
	hideFromAddressLists := configuration.HideFromAddressLists
	debugEnabled := false

	if command != nil {
		if command.Flags().Changed(prefixFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(prefixFlagNameConstant)
			if len(strings.TrimSpace(flagValue)) > 0 {
				prefix = strings.TrimSpace(flagValue)
			}
		}

		if command.Flags().Changed(routingDomainFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(routingDomainFlagNameConstant)
			if len(strings.TrimSpace(flagValue)) > 0 {
				routingDomain = strings.TrimSpace(flagValue)
			}
		}

		if command.Flags().Changed(hideFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(hideFlagNameConstant)
			hideFromAddressLists = flagValue
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
		sourceIdentity:       sourceIdentity,
		prefix:               prefix,
		routingDomain:        routingDomain,
		hideFromAddressLists: hideFromAddressLists,
		debugLoggingEnabled:  debugEnabled,
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
