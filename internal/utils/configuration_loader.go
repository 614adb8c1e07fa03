package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeySeparatorConstant        = "."
	environmentKeySeparatorConstant          = "_"
	listValueSeparatorConstant               = ","
	configurationReadMessageConstant         = "unable to read configuration"
	configurationDecodeMessageConstant       = "unable to decode configuration"
	embeddedConfigurationMessageConstant     = "unable to merge embedded configuration"
	configurationFailureTemplateConstant     = "%w: %w"
	configurationFileFailureTemplateConstant = "%w %s: %w"
)

// ErrConfigurationRead wraps failures to read or parse a configuration file.
var ErrConfigurationRead = errors.New(configurationReadMessageConstant)

// ErrConfigurationDecode wraps failures to decode merged values into the target structure.
var ErrConfigurationDecode = errors.New(configurationDecodeMessageConstant)

// ErrEmbeddedConfiguration wraps failures to merge the built-in defaults.
var ErrEmbeddedConfiguration = errors.New(embeddedConfigurationMessageConstant)

// ConfigurationLoader layers configuration sources with Viper. Later layers win:
// explicit defaults, the embedded document, the first configuration file found,
// then PREFIX_SECTION_KEY environment variables.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// LoadedConfiguration reports which file, if any, contributed to the result.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader searching searchPaths for configurationName.configurationType.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// WithoutSearchPaths returns a copy of the loader that reads no configuration file unless one is named explicitly.
func (loader *ConfigurationLoader) WithoutSearchPaths() *ConfigurationLoader {
	detachedLoader := *loader
	detachedLoader.searchPaths = nil
	return &detachedLoader
}

// SetEmbeddedConfiguration stores the built-in document merged beneath any configuration file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)
	loader.embeddedConfiguration = append([]byte(nil), configurationData...)
}

// LoadConfiguration resolves every layer and decodes the result into targetConfiguration.
// An explicit configurationFilePath must exist; without one a missing file in the search paths is not an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := loader.newViper(defaultValues)

	if mergeError := loader.mergeEmbeddedConfiguration(viperInstance); mergeError != nil {
		return LoadedConfiguration{}, mergeError
	}

	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}
	if readError := viperInstance.MergeInConfig(); readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationFileFailureTemplateConstant, ErrConfigurationRead, viperInstance.ConfigFileUsed(), readError)
		}
	}

	decodeError := viperInstance.Unmarshal(targetConfiguration, viper.DecodeHook(configurationDecodeHook()))
	if decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationFailureTemplateConstant, ErrConfigurationDecode, decodeError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) newViper(defaultValues map[string]any) *viper.Viper {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)
	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}
	return viperInstance
}

func (loader *ConfigurationLoader) mergeEmbeddedConfiguration(viperInstance *viper.Viper) error {
	if len(loader.embeddedConfiguration) == 0 {
		return nil
	}

	embeddedType := loader.embeddedConfigurationType
	if len(embeddedType) == 0 {
		embeddedType = loader.configurationType
	}
	viperInstance.SetConfigType(embeddedType)
	defer viperInstance.SetConfigType(loader.configurationType)

	if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
		return fmt.Errorf(configurationFailureTemplateConstant, ErrEmbeddedConfiguration, mergeError)
	}
	return nil
}

// configurationDecodeHook accepts "5m" for durations and "origin,upstream" for lists.
func configurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}
