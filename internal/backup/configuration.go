package backup

import "strings"

const (
	configurationBackupDirectoryKeyConstant = "backup_directory"
	defaultBackupDirectoryConstant          = "backups"
)

// CommandConfiguration captures persisted configuration for the backup command.
type CommandConfiguration struct {
	BackupDirectory string `mapstructure:"backup_directory"`
}

// DefaultCommandConfiguration returns baseline configuration values for backup.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{BackupDirectory: defaultBackupDirectoryConstant}
}

// DefaultConfigurationValues produces Viper defaults for the backup command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationBackupDirectoryKeyConstant: defaults.BackupDirectory,
	}
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.BackupDirectory = strings.TrimSpace(configuration.BackupDirectory)
	if len(sanitized.BackupDirectory) == 0 {
		sanitized.BackupDirectory = defaultBackupDirectoryConstant
	}
	return sanitized
}
