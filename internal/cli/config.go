package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	DocumentsDir string `json:"documents_dir"`
	Author       string `json:"author,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DocumentsDir: "docs",
	}
}

// ConfigFileName is the project config file name. The format is JSONC:
// comments and trailing commas are allowed.
const ConfigFileName = ".markmeta.json"

var (
	errConfigInvalid  = errors.New("invalid config file")
	errDocumentsEmpty = errors.New("documents_dir must not be empty")
)

// globalConfigPath returns the path of the global config file, derived
// from $XDG_CONFIG_HOME or the home directory. Empty when neither can
// be determined.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "markmeta", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "markmeta", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest
// wins): defaults, global user config, project config in workDir, CLI
// overrides applied by the caller.
func LoadConfig(workDir string, env map[string]string) (Config, error) {
	cfg := DefaultConfig()

	globalCfg, err := loadConfigFile(globalConfigPath(env))
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, err := loadConfigFile(filepath.Join(workDir, ConfigFileName))
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, projectCfg)

	if cfg.DocumentsDir == "" {
		return Config{}, errDocumentsEmpty
	}

	return cfg, nil
}

// loadConfigFile loads one optional config file. A missing file returns
// a zero config.
func loadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.DocumentsDir != "" {
		base.DocumentsDir = overlay.DocumentsDir
	}

	if overlay.Author != "" {
		base.Author = overlay.Author
	}

	return base
}
