// Package config loads runtime settings. Environment variables prefixed
// ORRERY_ override the YAML file, which overrides the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/integrators"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/sim"
)

const (
	DefaultPreset  = "inner"
	DefaultMaxStep = sim.DefaultMaxStep
	DefaultSpeed   = 86400.0 // one simulated day per wall second
	DefaultFPS     = 30
	DefaultDataDir = "runs"
	DefaultListen  = ":8080"
	EnvPrefix      = "ORRERY"
)

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type Config struct {
	Catalog    string    `yaml:"catalog,omitempty" mapstructure:"catalog"`
	Preset     string    `yaml:"preset" mapstructure:"preset"`
	Epoch      string    `yaml:"epoch,omitempty" mapstructure:"epoch"`
	MaxStep    float64   `yaml:"max_step" mapstructure:"max_step"`
	Precision  uint      `yaml:"precision" mapstructure:"precision"`
	Integrator string    `yaml:"integrator" mapstructure:"integrator"`
	Speed      float64   `yaml:"speed" mapstructure:"speed"`
	FPS        int       `yaml:"fps" mapstructure:"fps"`
	DataDir    string    `yaml:"data_dir" mapstructure:"data_dir"`
	Listen     string    `yaml:"listen" mapstructure:"listen"`
	Log        LogConfig `yaml:"log" mapstructure:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset:     DefaultPreset,
		MaxStep:    DefaultMaxStep,
		Integrator: string(integrators.MethodEuler),
		Speed:      DefaultSpeed,
		FPS:        DefaultFPS,
		DataDir:    DefaultDataDir,
		Listen:     DefaultListen,
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("catalog", d.Catalog)
	v.SetDefault("preset", d.Preset)
	v.SetDefault("epoch", d.Epoch)
	v.SetDefault("max_step", d.MaxStep)
	v.SetDefault("precision", d.Precision)
	v.SetDefault("integrator", d.Integrator)
	v.SetDefault("speed", d.Speed)
	v.SetDefault("fps", d.FPS)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// NewViper returns a viper instance with defaults and environment binding
// in place. Callers may bind CLI flags to it before calling Decode.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the file at path, if any, over the defaults and applies
// environment overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Catalog == "" && c.Preset == "" {
		errs = append(errs, errors.New("one of catalog or preset is required"))
	}
	if !(c.MaxStep > 0) {
		errs = append(errs, fmt.Errorf("max_step must be positive, got %g", c.MaxStep))
	}
	if c.Precision != 0 && c.Precision < 53 {
		errs = append(errs, fmt.Errorf("precision must be 0 or at least 53 bits, got %d", c.Precision))
	}
	if _, err := integrators.ParseMethod(c.Integrator); err != nil {
		errs = append(errs, err)
	}
	if c.FPS <= 0 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps must be in 1..240, got %d", c.FPS))
	}
	if c.Epoch != "" {
		if _, err := epoch.Parse(c.Epoch); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SimConfig returns the engine settings.
func (c *Config) SimConfig() sim.Config {
	method, _ := integrators.ParseMethod(c.Integrator)
	return sim.Config{MaxStep: c.MaxStep, Precision: c.Precision, Integrator: method}
}

// StartEpoch returns the configured epoch, or the zero epoch when the
// catalog's own should be used.
func (c *Config) StartEpoch() (epoch.Epoch, error) {
	if c.Epoch == "" {
		return epoch.Epoch{}, nil
	}
	return epoch.Parse(c.Epoch)
}
