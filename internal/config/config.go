package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	OutputDir           string
	SettingsPath        string
	EnableMermaidCharts bool
	Settings            Settings
}

// Load loads the configuration from .env files, environment variables and the
// YAML settings file.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	outputDir := getEnv("OUTPUT_DIR", filepath.Join(dataPath, "output"))
	settingsPath := getEnv("SETTINGS_PATH", filepath.Join(dataPath, "settings.yaml"))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", outputDir).Msg("Failed to create output directory")
	}

	settings, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(&settings)

	cfg := &AppConfig{
		DataPath:            dataPath,
		LogDir:              logDir,
		OutputDir:           outputDir,
		SettingsPath:        settingsPath,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", true),
		Settings:            settings,
	}

	return cfg, nil
}

func applyEnvOverrides(s *Settings) {
	if v, ok := os.LookupEnv("OPS_MCS_SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			log.Warn().Str("value", v).Msg("Ignoring invalid OPS_MCS_SEED")
		} else {
			s.Scenarios.Seed = &seed
		}
	}
	if v, ok := os.LookupEnv("OPS_MCS_WORKERS"); ok {
		workers, err := strconv.Atoi(v)
		if err != nil {
			log.Warn().Str("value", v).Msg("Ignoring invalid OPS_MCS_WORKERS")
		} else {
			s.Scenarios.Workers = workers
		}
	}
	if v, ok := os.LookupEnv("OPS_MCS_SIMULATIONS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.Scenarios.NumSimulations = n
		}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
