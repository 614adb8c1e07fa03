package cli

import (
	"strings"
	"time"

	"github.com/temirov/gitupdater/internal/credentials"
	"github.com/temirov/gitupdater/internal/scan"
	"github.com/temirov/gitupdater/internal/utils"
)

const (
	commonConfigurationKeyConstant               = "common"
	commonLogLevelConfigKeyConstant              = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant             = commonConfigurationKeyConstant + ".log_format"
	scanConfigurationKeyConstant                 = "scan"
	gitConfigurationKeyConstant                  = "git"
	gitExecutableConfigKeyConstant               = gitConfigurationKeyConstant + ".executable"
	gitCommandTimeoutConfigKeyConstant           = gitConfigurationKeyConstant + ".command_timeout"
	credentialsConfigurationKeyConstant          = "credentials"
	credentialsSegmentNameConfigKeyConstant      = credentialsConfigurationKeyConstant + ".segment_name"
	credentialsSegmentDirectoryConfigKeyConstant = credentialsConfigurationKeyConstant + ".segment_directory"
	credentialsSegmentSizeConfigKeyConstant      = credentialsConfigurationKeyConstant + ".segment_size"
	defaultGitExecutableConstant                 = "git"
	defaultGitCommandTimeoutConstant             = 5 * time.Minute
	configurationKeySeparatorConstant            = "."
	environmentVariableSeparatorConstant         = "_"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common      ApplicationCommonConfiguration `mapstructure:"common"`
	Scan        scan.Configuration             `mapstructure:"scan"`
	Git         GitConfiguration               `mapstructure:"git"`
	Credentials CredentialsConfiguration       `mapstructure:"credentials"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// GitConfiguration controls how git is invoked. Commands overrides the argument template of
// individual operations, keyed by operation name.
type GitConfiguration struct {
	Executable     string            `mapstructure:"executable"`
	CommandTimeout time.Duration     `mapstructure:"command_timeout"`
	Commands       map[string]string `mapstructure:"commands"`
}

// CredentialsConfiguration locates the credential segment shared with askpass helpers.
type CredentialsConfiguration struct {
	SegmentName      string `mapstructure:"segment_name"`
	SegmentDirectory string `mapstructure:"segment_directory"`
	SegmentSize      int    `mapstructure:"segment_size"`
}

// SegmentOptions converts the configuration into credential segment options.
func (configuration CredentialsConfiguration) SegmentOptions() credentials.SegmentOptions {
	return credentials.SegmentOptions{
		Name:      configuration.SegmentName,
		Directory: configuration.SegmentDirectory,
		Size:      configuration.SegmentSize,
	}
}

// configurationEnvironmentVariable returns the variable that overrides configurationKey.
func configurationEnvironmentVariable(configurationKey string) string {
	environmentSuffix := strings.ReplaceAll(configurationKey, configurationKeySeparatorConstant, environmentVariableSeparatorConstant)
	return environmentPrefixConstant + environmentVariableSeparatorConstant + strings.ToUpper(environmentSuffix)
}

func defaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:              string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant:             string(utils.LogFormatStructured),
		gitExecutableConfigKeyConstant:               defaultGitExecutableConstant,
		gitCommandTimeoutConfigKeyConstant:           defaultGitCommandTimeoutConstant,
		credentialsSegmentNameConfigKeyConstant:      "",
		credentialsSegmentDirectoryConfigKeyConstant: "",
		credentialsSegmentSizeConfigKeyConstant:      credentials.DefaultSegmentSize,
	}
	for configurationKey, configurationValue := range scan.DefaultConfigurationValues(scanConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	return defaultValues
}
