package configloader

import (
	"os"

	"jobcorr/src/config"
	"jobcorr/src/internal/common"
)

// LoadForCLI resolves the file layer of the settings: an explicit path must
// load, the default file is optional, and built-in defaults are the last resort.
// Environment and flag layers are applied by the caller.
func LoadForCLI(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfig(configPath)
	}
	return loadDefault(config.GetDefaultConfigPath()), nil
}

func loadDefault(defaultPath string) *config.Config {
	if _, err := os.Stat(defaultPath); err != nil {
		return config.GetDefaultConfig()
	}
	loaded, err := config.LoadConfig(defaultPath)
	if err != nil {
		common.CLILogger.Warn("Failed to load default config from %s, using defaults: %v", defaultPath, err)
		return config.GetDefaultConfig()
	}
	return loaded
}
