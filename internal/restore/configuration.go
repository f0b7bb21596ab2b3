package restore

import "strings"

const (
	configurationBackupDirectoryKeyConstant = "backup_directory"
	configurationPollIntervalKeyConstant    = "poll_interval_seconds"
	configurationPollAttemptsKeyConstant    = "poll_attempt_limit"
	defaultBackupDirectoryConstant          = "backups"
	defaultPollIntervalSecondsConstant      = 30
	defaultPollAttemptLimitConstant         = 40
)

// CommandConfiguration captures persisted configuration for the restore command.
type CommandConfiguration struct {
	BackupDirectory     string `mapstructure:"backup_directory"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	PollAttemptLimit    int    `mapstructure:"poll_attempt_limit"`
}

// DefaultCommandConfiguration returns baseline configuration values for restore.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		BackupDirectory:     defaultBackupDirectoryConstant,
		PollIntervalSeconds: defaultPollIntervalSecondsConstant,
		PollAttemptLimit:    defaultPollAttemptLimitConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for the restore command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationBackupDirectoryKeyConstant: defaults.BackupDirectory,
		rootKey + "." + configurationPollIntervalKeyConstant:    defaults.PollIntervalSeconds,
		rootKey + "." + configurationPollAttemptsKeyConstant:    defaults.PollAttemptLimit,
	}
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.BackupDirectory = strings.TrimSpace(configuration.BackupDirectory)
	if len(sanitized.BackupDirectory) == 0 {
		sanitized.BackupDirectory = defaultBackupDirectoryConstant
	}
	if sanitized.PollIntervalSeconds <= 0 {
		sanitized.PollIntervalSeconds = defaultPollIntervalSecondsConstant
	}
	if sanitized.PollAttemptLimit < 1 {
		sanitized.PollAttemptLimit = defaultPollAttemptLimitConstant
	}
	return sanitized
}
