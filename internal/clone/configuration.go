package clone

import "strings"

const (
	configurationPrefixKeyConstant     = "prefix"
	configurationCopySendAsKeyConstant = "copy_send_as"
	defaultClonePrefixConstant         = "Cloud-"
)

// CommandConfiguration captures persisted configuration for the clone command.
type CommandConfiguration struct {
	Prefix     string `mapstructure:"prefix"`
	CopySendAs bool   `mapstructure:"copy_send_as"`
}

// DefaultCommandConfiguration returns baseline configuration values for clone.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Prefix: defaultClonePrefixConstant, CopySendAs: true}
}

// DefaultConfigurationValues produces Viper defaults for the clone command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationPrefixKeyConstant:     defaults.Prefix,
		rootKey + "." + configurationCopySendAsKeyConstant: defaults.CopySendAs,
	}
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Prefix = strings.TrimSpace(configuration.Prefix)
	if len(sanitized.Prefix) == 0 {
		sanitized.Prefix = defaultClonePrefixConstant
	}
	return sanitized
}
