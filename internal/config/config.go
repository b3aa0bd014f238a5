package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. AUGMENTER_PIPELINE_WORKERS
const EnvPrefix = "AUGMENTER_"

// Config holds the application configuration
type Config struct {
	Pipeline PipelineConfig `koanf:"pipeline" yaml:"pipeline" json:"pipeline"`
	Output   OutputConfig   `koanf:"output" yaml:"output" json:"output"`
	Log      LogConfig      `koanf:"log" yaml:"log" json:"log"`
}

// PipelineConfig holds configuration for running op lists
type PipelineConfig struct {
	Seed          uint64 `koanf:"seed" yaml:"seed" json:"seed"`
	Workers       int    `koanf:"workers" yaml:"workers" json:"workers" validate:"min=1,max=256"`
	Interpolation string `koanf:"interpolation" yaml:"interpolation" json:"interpolation" validate:"oneof=nearest approx-bilinear bilinear catmull-rom"`
	MinImageSize  int    `koanf:"min_image_size" yaml:"min_image_size" json:"min_image_size" validate:"min=1"`
	// Copies is how many augmented variants a batch writes per source image
	Copies int `koanf:"copies" yaml:"copies" json:"copies" validate:"min=1,max=1000"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format       string `koanf:"format" yaml:"format" json:"format" validate:"oneof=jpg jpeg png webp"`
	Quality      int    `koanf:"quality" yaml:"quality" json:"quality" validate:"min=1,max=100"`
	Lossless     bool   `koanf:"lossless" yaml:"lossless" json:"lossless"`
	Dir          string `koanf:"dir" yaml:"dir" json:"dir" validate:"required"`
	DebugOverlay bool   `koanf:"debug_overlay" yaml:"debug_overlay" json:"debug_overlay"`
	Segmentation bool   `koanf:"segmentation" yaml:"segmentation" json:"segmentation"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `koanf:"level" yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json" yaml:"json" json:"json"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Seed:          0,
			Workers:       4,
			Interpolation: "bilinear",
			MinImageSize:  1,
			Copies:        1,
		},
		Output: OutputConfig{
			Format:  "jpg",
			Quality: 90,
			Dir:     "./augmented",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the file at path if path is not empty,
// then AUGMENTER_* environment variables, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := k.Load(rawMap(raw), nil); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	envToKey := make(map[string]string)
	for _, key := range k.Keys() {
		envToKey[EnvPrefix+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(name, value string) (string, any) {
			return envToKey[name], value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// LoadFromFile loads configuration from a YAML or JSON file layered over the defaults
func LoadFromFile(filename string) (*Config, error) {
	return Load(filename)
}

// SaveToFile saves configuration as JSON when filename ends in .json, YAML otherwise
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "image-augmenter", "config.yaml")
}

// rawMap is a koanf.Provider for an already parsed map
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
