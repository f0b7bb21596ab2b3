package contact

import "strings"

const (
	configurationPrefixKeyConstant        = "prefix"
	configurationRoutingDomainKeyConstant = "routing_domain"
	configurationHideKeyConstant          = "hide_from_address_lists"
	defaultContactPrefixConstant          = "Contact-"
)

// CommandConfiguration captures persisted configuration for the contact command.
type CommandConfiguration struct {
	Prefix               string `mapstructure:"prefix"`
	RoutingDomain        string `mapstructure:"routing_domain"`
	HideFromAddressLists bool   `mapstructure:"hide_from_address_lists"`
}

// DefaultCommandConfiguration returns baseline configuration values for contact.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Prefix: defaultContactPrefixConstant, HideFromAddressLists: true}
}

// DefaultConfigurationValues produces Viper defaults for the contact command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationPrefixKeyConstant:        defaults.Prefix,
		rootKey + "." + configurationRoutingDomainKeyConstant: defaults.RoutingDomain,
		rootKey + "." + configurationHideKeyConstant:          defaults.HideFromAddressLists,
	}
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Prefix = strings.TrimSpace(configuration.Prefix)
	sanitized.RoutingDomain = strings.TrimSpace(configuration.RoutingDomain)
	if len(sanitized.Prefix) == 0 {
		sanitized.Prefix = defaultContactPrefixConstant
	}
	return sanitized
}
