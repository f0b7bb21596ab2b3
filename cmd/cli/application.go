package cli

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/grouplift/grouplift/internal/backup"
	"github.com/grouplift/grouplift/internal/clone"
	"github.com/grouplift/grouplift/internal/contact"
	"github.com/grouplift/grouplift/internal/convert"
	"github.com/grouplift/grouplift/internal/graphapi"
	"github.com/grouplift/grouplift/internal/inspect"
	"github.com/grouplift/grouplift/internal/restore"
	"github.com/grouplift/grouplift/internal/utils"
)

const (
	applicationNameConstant                 = "grouplift"
	applicationShortDescriptionConstant     = "Command-line interface for distribution group migrations"
	applicationLongDescriptionConstant      = "grouplift migrates on-premises-synced distribution groups to cloud-only groups: clone them, stage mail contact placeholders, convert them in place, and restore them from XML snapshots."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "GROUPLIFT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "grouplift CLI executed"
	rootCommandDebugMessageConstant         = "grouplift CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	serviceConfigurationKeyConstant         = "service"
	serviceBaseURLConfigKeyConstant         = serviceConfigurationKeyConstant + ".base_url"
	serviceTokenScopeConfigKeyConstant      = serviceConfigurationKeyConstant + ".token_scope"
	toolsConfigurationKeyConstant           = "tools"
	cloneConfigurationKeyConstant           = toolsConfigurationKeyConstant + ".clone"
	contactConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".contact"
	convertConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".convert"
	restoreConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".restore"
	backupConfigurationKeyConstant          = toolsConfigurationKeyConstant + ".backup"
	defaultServiceBaseURLConstant           = "https://outlook.office365.com/adminapi/v1.0"
	defaultServiceTokenScopeConstant        = "https://outlook.office365.com/.default"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration  `mapstructure:"common"`
	Service ApplicationServiceConfiguration `mapstructure:"service"`
	Tools   ApplicationToolsConfiguration   `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationServiceConfiguration stores the administration gateway connection settings.
// The client secret is normally supplied through GROUPLIFT_SERVICE_CLIENT_SECRET.
type ApplicationServiceConfiguration struct {
	BaseURL      string `mapstructure:"base_url"`
	TenantID     string `mapstructure:"tenant_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenScope   string `mapstructure:"token_scope"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool.
type ApplicationToolsConfiguration struct {
	Clone   clone.CommandConfiguration   `mapstructure:"clone"`
	Contact contact.CommandConfiguration `mapstructure:"contact"`
	Convert convert.CommandConfiguration `mapstructure:"convert"`
	Restore restore.CommandConfiguration `mapstructure:"restore"`
	Backup  backup.CommandConfiguration  `mapstructure:"backup"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	embeddedConfiguration, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfiguration, embeddedConfigurationType)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	cloneBuilder := clone.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		GatewayProvider: func() (clone.DirectoryGateway, error) {
			return application.buildGateway()
		},
		ConfigurationProvider: func() clone.CommandConfiguration {
			return application.configuration.Tools.Clone
		},
	}
	cloneCommand, cloneBuildError := cloneBuilder.Build()
	if cloneBuildError == nil {
		cobraCommand.AddCommand(cloneCommand)
	}

	contactBuilder := contact.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		GatewayProvider: func() (contact.DirectoryGateway, error) {
			return application.buildGateway()
		},
		ConfigurationProvider: func() contact.CommandConfiguration {
			return application.configuration.Tools.Contact
		},
	}
	contactCommand, contactBuildError := contactBuilder.Build()
	if contactBuildError == nil {
		cobraCommand.AddCommand(contactCommand)
	}

	convertBuilder := convert.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		GatewayProvider: func() (convert.DirectoryGateway, error) {
			return application.buildGateway()
		},
		ConfigurationProvider: func() convert.CommandConfiguration {
			return application.configuration.Tools.Convert
		},
	}
	convertCommand, convertBuildError := convertBuilder.Build()
	if convertBuildError == nil {
		cobraCommand.AddCommand(convertCommand)
	}

	restoreBuilder := restore.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		GatewayProvider: func() (restore.DirectoryGateway, error) {
			return application.buildGateway()
		},
		ConfigurationProvider: func() restore.CommandConfiguration {
			return application.configuration.Tools.Restore
		},
	}
	restoreCommand, restoreBuildError := restoreBuilder.Build()
	if restoreBuildError == nil {
		cobraCommand.AddCommand(restoreCommand)
	}

	backupBuilder := backup.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		GatewayProvider: func() (backup.DirectoryGateway, error) {
			return application.buildGateway()
		},
		ConfigurationProvider: func() backup.CommandConfiguration {
			return application.configuration.Tools.Backup
		},
	}
	backupCommand, backupBuildError := backupBuilder.Build()
	if backupBuildError == nil {
		cobraCommand.AddCommand(backupCommand)
	}

	inspectBuilder := inspect.CommandBuilder{}
	inspectCommand, inspectBuildError := inspectBuilder.Build()
	if inspectBuildError == nil {
		cobraCommand.AddCommand(inspectCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// RootCommand exposes the assembled Cobra root command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:    string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:   string(utils.LogFormatStructured),
		serviceBaseURLConfigKeyConstant:    defaultServiceBaseURLConstant,
		serviceTokenScopeConfigKeyConstant: defaultServiceTokenScopeConstant,
	}
	for configurationKey, configurationValue := range clone.DefaultConfigurationValues(cloneConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range contact.DefaultConfigurationValues(contactConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range convert.DefaultConfigurationValues(convertConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range restore.DefaultConfigurationValues(restoreConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range backup.DefaultConfigurationValues(backupConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithLogLevel(
			updatedContext,
			application.configuration.Common.LogLevel,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) buildGateway() (*graphapi.Client, error) {
	tokenProvider, providerError := graphapi.NewClientSecretTokenProvider(graphapi.CredentialSettings{
		TenantIdentifier: application.configuration.Service.TenantID,
		ClientIdentifier: application.configuration.Service.ClientID,
		ClientSecret:     application.configuration.Service.ClientSecret,
		TokenScope:       application.configuration.Service.TokenScope,
	})
	if providerError != nil {
		return nil, providerError
	}

	return graphapi.NewClient(graphapi.ClientConfiguration{
		BaseURL:       application.configuration.Service.BaseURL,
		TokenProvider: tokenProvider,
	})
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
