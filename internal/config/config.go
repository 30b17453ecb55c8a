package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"trunkline/internal/common"
)

const (
	envPrefix      = "TRUNKLINE"
	configName     = "config"
	configType     = "yaml"
	defaultDirName = ".trunkline"
)

// Config holds the settings shared by every trunkline command
type Config struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir"`
}

// GetConfigPath returns the directory searched for config.yaml after the working directory
func GetConfigPath() string {
	if dir := os.Getenv(envPrefix + "_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultDirName)
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("data_dir", GetConfigPath())
}

// NewViper returns a viper instance wired with trunkline's search paths,
// defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")
	v.AddConfigPath(GetConfigPath())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

// Load reads the config file (if any) into v and decodes it.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the decoded values
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be text or json", c.LogFormat)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

// ProjectStateDir returns the directory holding the target and session data
// for the repository at repoPath.
func (c *Config) ProjectStateDir(repoPath string) (string, error) {
	abs, err := common.CleanPath(repoPath)
	if err != nil {
		return "", fmt.Errorf("invalid repository path: %w", err)
	}
	return filepath.Join(c.DataDir, "projects", ProjectID(abs)), nil
}

// ProjectID derives a stable identifier for a repository path
func ProjectID(absRepoPath string) string {
	sum := sha256.Sum256([]byte(absRepoPath))
	return fmt.Sprintf("%s-%x", sanitize(filepath.Base(absRepoPath)), sum[:4])
}

func sanitize(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	if name == "" || name == "." {
		return "repo"
	}
	return name
}
