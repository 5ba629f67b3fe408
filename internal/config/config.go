// Package config resolves run settings from flags, environment
// variables, and an optional YAML profile. Precedence is flag > env >
// profile > default; flags are bound in cmd, this package supplies the
// defaults underneath them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"

	"github.com/kubesize/kubesize/help"
	"github.com/kubesize/kubesize/internal/accounting"
)

// Config holds everything a report run needs.
type Config struct {
	Kubeconfig string   `yaml:"kubeconfig"`
	Context    string   `yaml:"context"`
	Namespace  string   `yaml:"namespace"`
	SkipSystem bool     `yaml:"skipSystem"`
	Exclude    []string `yaml:"exclude"`
	NoTop      bool     `yaml:"noTop"`
	Sort       string   `yaml:"sort"`
	Unit       string   `yaml:"unit"`
	Workers    int      `yaml:"workers"`
}

// base returns the built-in defaults, before any environment or profile
// values apply.
func base() Config {
	return Config{
		Kubeconfig: filepath.Join(help.HomeDir(), ".kube", "config"),
		Sort:       accounting.SortByCPURequest,
		Unit:       accounting.UnitGiB,
		Workers:    1,
	}
}

// applyEnv overlays environment variables onto cfg. Unset variables
// leave the current value alone.
func applyEnv(cfg *Config) {
	cfg.Kubeconfig = getEnvOrDefault("KUBECONFIG", cfg.Kubeconfig)
	cfg.Context = getEnvOrDefault("KUBESIZE_CONTEXT", cfg.Context)
	cfg.Sort = getEnvOrDefault("KUBESIZE_SORT", cfg.Sort)
	cfg.Unit = getEnvOrDefault("KUBESIZE_UNIT", cfg.Unit)
	cfg.Workers = getIntOrDefault("KUBESIZE_WORKERS", cfg.Workers)
}

// Defaults builds the baseline config: built-in defaults with
// environment variables applied on top.
func Defaults() Config {
	cfg := base()
	applyEnv(&cfg)
	return cfg
}

// Resolve layers everything below the flags: built-in defaults, then
// the profile file, then environment variables. cmd re-applies
// explicitly set flags on top of the result.
func Resolve(profilePath string) (Config, error) {
	cfg := base()
	if profilePath != "" {
		if err := LoadProfile(&cfg, profilePath); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadProfile overlays a YAML profile file onto cfg. A missing file is
// an error only when the path was explicitly requested.
func LoadProfile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing profile %s: %w", path, err)
	}
	klog.V(2).InfoS("loaded profile", "path", path)
	return nil
}

// Validate rejects settings no report flow can honor.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if !accounting.ValidUnit(c.Unit) {
		return fmt.Errorf("unknown unit %q (accepted: %s, %s)", c.Unit, accounting.UnitMiB, accounting.UnitGiB)
	}
	for _, k := range accounting.SortKeys {
		if c.Sort == k {
			return nil
		}
	}
	return fmt.Errorf("unknown sort key %q (accepted: %v)", c.Sort, accounting.SortKeys)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.Atoi(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("invalid integer value, using default",
			"key", key, "value", strValue, "default", defaultValue)
	}
	return defaultValue
}
