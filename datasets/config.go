package datasets

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MaskMode selects how mask images are combined with the input images.
type MaskMode string

const (
	MaskNone     MaskMode = "none"
	MaskOcclude  MaskMode = "occlude"
	MaskOverlay  MaskMode = "overlay"
	MaskOverlay3 MaskMode = "overlay_3"
)

// Valid reports whether m is a known mask mode.
func (m MaskMode) Valid() bool {
	switch m {
	case MaskNone, MaskOcclude, MaskOverlay, MaskOverlay3:
		return true
	}
	return false
}

// SampleConfig enables sampling of the flow frame.
type SampleConfig struct {
	// Size is the total number of rows to draw.
	Size int `mapstructure:"size" yaml:"size"`

	// Balanced draws Size / number-of-classes rows from every class instead
	// of Size rows overall.
	Balanced bool `mapstructure:"balanced" yaml:"balanced"`
}

// PretrainedConfig names the pretrained CNN whose preprocessing is applied.
type PretrainedConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
}

// LogConfig configures the zerolog global logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or console
}

// Config holds every option recognised by the Manager.
type Config struct {
	// Root is the data root holding one directory per country.
	Root string `mapstructure:"root" yaml:"root"`

	UseKenyaImages bool `mapstructure:"use_kenya_images" yaml:"use_kenya_images"`
	UsePeruImages  bool `mapstructure:"use_peru_images" yaml:"use_peru_images"`

	// ImageSize is the square side images are resized to. It is also part
	// of the image directory path.
	ImageSize int `mapstructure:"image_size" yaml:"image_size"`

	// Resizing is the resizing-mode component of the image directory path.
	Resizing string `mapstructure:"resizing" yaml:"resizing"`

	// ClassEnum maps raw class labels to integer labels. Negative labels are
	// kept in the frame but excluded from balanced sampling.
	ClassEnum map[string]int `mapstructure:"class_enum" yaml:"class_enum"`

	// NClasses is the number of classes. Defaults to the number of distinct
	// non-negative labels in ClassEnum.
	NClasses int `mapstructure:"n_classes" yaml:"n_classes"`

	BatchSize       int     `mapstructure:"batch_size" yaml:"batch_size"`
	Seed            int64   `mapstructure:"seed" yaml:"seed"`
	ValidationSplit float64 `mapstructure:"validation_split" yaml:"validation_split"`

	Sample *SampleConfig `mapstructure:"sample" yaml:"sample"`

	RemoveClouds bool     `mapstructure:"remove_clouds" yaml:"remove_clouds"`
	UseGrayscale bool     `mapstructure:"use_grayscale" yaml:"use_grayscale"`
	Mask         MaskMode `mapstructure:"mask" yaml:"mask"`
	MaskInverted bool     `mapstructure:"mask_inverted" yaml:"mask_inverted"`

	Pretrained *PretrainedConfig `mapstructure:"pretrained" yaml:"pretrained"`

	WeightClasses bool `mapstructure:"weight_classes" yaml:"weight_classes"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = "data"
	}
	if c.ImageSize == 0 {
		c.ImageSize = 224
	}
	if c.Resizing == "" {
		c.Resizing = "none"
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	if c.Mask == "" {
		c.Mask = MaskNone
	}
	if c.NClasses == 0 {
		c.NClasses = len(c.Labels())
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Labels returns the distinct non-negative labels of the class enumeration
// in ascending order.
func (c *Config) Labels() []int {
	seen := make(map[int]bool)
	var labels []int
	for _, v := range c.ClassEnum {
		if v >= 0 && !seen[v] {
			seen[v] = true
			labels = append(labels, v)
		}
	}
	sort.Ints(labels)
	return labels
}

// Validate checks option ranges. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.ImageSize <= 0 {
		return fmt.Errorf("%w: image_size must be positive, got %d", ErrInvalidConfig, c.ImageSize)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.ValidationSplit < 0 || c.ValidationSplit >= 1 {
		return fmt.Errorf("%w: validation_split must be in [0, 1), got %v", ErrInvalidConfig, c.ValidationSplit)
	}
	if !c.Mask.Valid() {
		return fmt.Errorf("%w: mask must be one of none, occlude, overlay, overlay_3, got %q", ErrInvalidConfig, c.Mask)
	}
	if len(c.ClassEnum) == 0 {
		return fmt.Errorf("%w: class_enum is required", ErrInvalidConfig)
	}
	if c.NClasses <= 0 {
		return fmt.Errorf("%w: n_classes must be positive, got %d", ErrInvalidConfig, c.NClasses)
	}
	if c.Sample != nil && c.Sample.Size <= 0 {
		return fmt.Errorf("%w: sample.size must be positive, got %d", ErrInvalidConfig, c.Sample.Size)
	}
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("%w: invalid log level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("%w: log format must be 'json' or 'console', got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// envKeys lists every scalar config key that can be set from the
// environment. class_enum is a map and is only read from the file.
var envKeys = []string{
	"root",
	"use_kenya_images",
	"use_peru_images",
	"image_size",
	"resizing",
	"n_classes",
	"batch_size",
	"seed",
	"validation_split",
	"sample.size",
	"sample.balanced",
	"remove_clouds",
	"use_grayscale",
	"mask",
	"mask_inverted",
	"pretrained.type",
	"weight_classes",
	"log.level",
	"log.format",
}

// LoadConfig reads a YAML config file. Environment variables prefixed with
// LANDCOVER_ override file values and also apply to keys the file leaves
// out (LANDCOVER_BATCH_SIZE, LANDCOVER_LOG_LEVEL, LANDCOVER_SAMPLE_SIZE).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LANDCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only consults keys viper already knows about.
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// viper folds map keys to lower case; class labels are case sensitive.
	enum, err := readClassEnum(path)
	if err != nil {
		return nil, err
	}
	if enum != nil {
		cfg.ClassEnum = enum
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func readClassEnum(path string) (map[string]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var doc struct {
		ClassEnum map[string]int `yaml:"class_enum"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse class_enum: %w", err)
	}
	return doc.ClassEnum, nil
}
