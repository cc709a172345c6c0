// Package config loads optional defaults for the atree command from
// configuration files. A global file in the user's home directory is applied
// first and a local file in the working directory overrides it; flags given
// on the command line always win over both.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the configuration file looked up in the working
	// directory and in the global configuration directory.
	ConfigFileName = ".atree.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home that
	// holds the global configuration file.
	GlobalConfigDirectoryName = ".config/atree"

	errorWorkingDirectoryFormat = "determine working directory: %w"
	errorStatConfigFormat       = "stat configuration %s: %w"
	errorConfigIsDirFormat      = "configuration path %s is a directory"
	errorReadConfigFormat       = "read configuration from %s: %w"
	errorDecodeConfigFormat     = "decode configuration from %s: %w"
	errorResolveConfigFormat    = "resolve configuration path %s: %w"
)

// LoadOptions controls how configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds invocation defaults. Pointer fields
// distinguish "unset" from an explicit false or zero.
type ApplicationConfiguration struct {
	Pattern  []string `mapstructure:"pattern"`
	Ignore   []string `mapstructure:"ignore"`
	Hidden   *bool    `mapstructure:"hidden"`
	MaxDepth *int     `mapstructure:"max_depth"`
	Workers  *int     `mapstructure:"workers"`
	Color    *bool    `mapstructure:"color"`
	Verbose  *bool    `mapstructure:"verbose"`
}

// LoadApplicationConfiguration loads and merges global and local files.
// Missing files are not an error.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf(errorWorkingDirectoryFormat, workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, GlobalConfigDirectoryName, ConfigFileName)
		globalConfig, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveError := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveError != nil {
		return ApplicationConfiguration{}, resolveError
	}
	if localPath != "" {
		localConfig, loadError := loadConfigurationFromPath(localPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(localConfig)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolutePath, absoluteError := filepath.Abs(explicitPath)
			if absoluteError != nil {
				return "", fmt.Errorf(errorResolveConfigFormat, explicitPath, absoluteError)
			}
			return absolutePath, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf(errorStatConfigFormat, path, statError)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf(errorConfigIsDirFormat, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorReadConfigFormat, path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorDecodeConfigFormat, path, decodeError)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	if len(override.Pattern) > 0 {
		result.Pattern = append([]string{}, override.Pattern...)
	}
	if len(override.Ignore) > 0 {
		result.Ignore = append([]string{}, override.Ignore...)
	}
	if override.Hidden != nil {
		result.Hidden = cloneBool(override.Hidden)
	}
	if override.MaxDepth != nil {
		result.MaxDepth = cloneInt(override.MaxDepth)
	}
	if override.Workers != nil {
		result.Workers = cloneInt(override.Workers)
	}
	if override.Color != nil {
		result.Color = cloneBool(override.Color)
	}
	if override.Verbose != nil {
		result.Verbose = cloneBool(override.Verbose)
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
