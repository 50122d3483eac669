package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/registrypatcher/internal/domain/entities"
)

// loadSettings resolves the configuration shared by every subcommand. An
// explicit --config must exist; otherwise the default locations are searched
// and, failing that, the built-in defaults are used. --registry and
// --concurrency override whatever the file says.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	registryRoot, _ := cmd.Flags().GetString("registry")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	if configPath == "" {
		if found, err := entities.FindConfigFile(); err == nil {
			configPath = found
		}
	}

	var settings *entities.Settings
	if configPath == "" {
		logger.Debug("No config file found, using defaults")
		settings = entities.DefaultSettings()
	} else {
		logger.Infof("Using config file: %s", configPath)
		loaded, err := entities.NewSettings(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		settings = loaded
	}

	if registryRoot != "" {
		settings.RegistryRoot = registryRoot
		settings.ApplyDefaults()
	}
	if concurrency > 0 {
		settings.Concurrency = concurrency
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
