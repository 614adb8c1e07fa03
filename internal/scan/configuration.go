package scan

import (
	"strings"

	"github.com/temirov/gitupdater/internal/discovery"
)

const (
	ignoreMarkerConfigurationKeyConstant      = "ignore_marker"
	fetchConfigurationKeyConstant             = "fetch"
	updateLocalConfigurationKeyConstant       = "update_local"
	updateRemoteConfigurationKeyConstant      = "update_remote"
	inspectSubmodulesConfigurationKeyConstant = "inspect_submodules"
	configurationKeySeparatorConstant         = "."
)

// Configuration captures persistent settings for the scan loop.
type Configuration struct {
	IgnoreMarker      string `mapstructure:"ignore_marker"`
	Fetch             bool   `mapstructure:"fetch"`
	UpdateLocal       bool   `mapstructure:"update_local"`
	UpdateRemote      bool   `mapstructure:"update_remote"`
	InspectSubmodules bool   `mapstructure:"inspect_submodules"`
}

// DefaultConfiguration fetches remotes and leaves branches untouched.
func DefaultConfiguration() Configuration {
	return Configuration{
		IgnoreMarker: discovery.DefaultIgnoreMarkerName,
		Fetch:        true,
	}
}

// DefaultConfigurationValues returns the defaults keyed for viper under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	keyPrefix := strings.TrimSpace(prefix)
	if len(keyPrefix) > 0 {
		keyPrefix += configurationKeySeparatorConstant
	}
	return map[string]any{
		keyPrefix + ignoreMarkerConfigurationKeyConstant:      defaults.IgnoreMarker,
		keyPrefix + fetchConfigurationKeyConstant:             defaults.Fetch,
		keyPrefix + updateLocalConfigurationKeyConstant:       defaults.UpdateLocal,
		keyPrefix + updateRemoteConfigurationKeyConstant:      defaults.UpdateRemote,
		keyPrefix + inspectSubmodulesConfigurationKeyConstant: defaults.InspectSubmodules,
	}
}

// Sanitize trims whitespace and restores the default ignore marker when unset.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.IgnoreMarker = strings.TrimSpace(configuration.IgnoreMarker)
	if len(sanitized.IgnoreMarker) == 0 {
		sanitized.IgnoreMarker = discovery.DefaultIgnoreMarkerName
	}
	// Pushing requires fresh remote-tracking refs.
	if !sanitized.Fetch {
		sanitized.UpdateLocal = false
		sanitized.UpdateRemote = false
	}
	return sanitized
}
