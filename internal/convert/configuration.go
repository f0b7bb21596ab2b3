package convert

import "strings"

const (
	configurationPrefixKeyConstant          = "prefix"
	configurationBackupDirectoryKeyConstant = "backup_directory"
	configurationExclusionValueKeyConstant  = "exclusion_value"
	configurationPollIntervalKeyConstant    = "poll_interval_seconds"
	configurationPollAttemptsKeyConstant    = "poll_attempt_limit"
	defaultConvertPrefixConstant            = "Cloud-"
	defaultBackupDirectoryConstant          = "backups"
	defaultExclusionValueConstant           = "cloud-only"
	defaultPollIntervalSecondsConstant      = 30
	defaultPollAttemptLimitConstant         = 40
)

// CommandConfiguration captures persisted configuration for the convert command.
type CommandConfiguration struct {
	Prefix              string `mapstructure:"prefix"`
	BackupDirectory     string `mapstructure:"backup_directory"`
	ExclusionValue      string `mapstructure:"exclusion_value"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	PollAttemptLimit    int    `mapstructure:"poll_attempt_limit"`
}

// DefaultCommandConfiguration returns baseline configuration values for convert.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Prefix:              defaultConvertPrefixConstant,
		BackupDirectory:     defaultBackupDirectoryConstant,
		ExclusionValue:      defaultExclusionValueConstant,
		PollIntervalSeconds: defaultPollIntervalSecondsConstant,
		PollAttemptLimit:    defaultPollAttemptLimitConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for the convert command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationPrefixKeyConstant:          defaults.Prefix,
		rootKey + "." + configurationBackupDirectoryKeyConstant: defaults.BackupDirectory,
		rootKey + "." + configurationExclusionValueKeyConstant:  defaults.ExclusionValue,
		rootKey + "." + configurationPollIntervalKeyConstant:    defaults.PollIntervalSeconds,
		rootKey + "." + configurationPollAttemptsKeyConstant:    defaults.PollAttemptLimit,
	}
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Prefix = strings.TrimSpace(configuration.Prefix)
	sanitized.BackupDirectory = strings.TrimSpace(configuration.BackupDirectory)
	sanitized.ExclusionValue = strings.TrimSpace(configuration.ExclusionValue)
	if len(sanitized.Prefix) == 0 {
		sanitized.Prefix = defaultConvertPrefixConstant
	}
	if len(sanitized.BackupDirectory) == 0 {
		sanitized.BackupDirectory = defaultBackupDirectoryConstant
	}
	if len(sanitized.ExclusionValue) == 0 {
		sanitized.ExclusionValue = defaultExclusionValueConstant
	}
	if sanitized.PollIntervalSeconds <= 0 {
		sanitized.PollIntervalSeconds = defaultPollIntervalSecondsConstant
	}
	if sanitized.PollAttemptLimit < 1 {
		sanitized.PollAttemptLimit = defaultPollAttemptLimitConstant
	}
	return sanitized
}
