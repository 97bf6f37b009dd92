// Package config loads envconv settings from defaults, an envconv.yaml
// file, ENVCONV_ environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "envconv.yaml"

const envPrefix = "ENVCONV_"

// Config holds the settings of a run.
type Config struct {
	// SkipUnresolved drops records with bad attributes or geometry with a
	// warning instead of failing.
	SkipUnresolved bool `koanf:"skip_unresolved"`

	Log     Log     `koanf:"log"`
	Solar   Solar   `koanf:"solar"`
	Climate Climate `koanf:"climate"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Solar configures the obstruction engine.
type Solar struct {
	// Method is "clip" or "rays".
	Method  string `koanf:"method"`
	Workers int    `koanf:"workers"`
	// Cache is the obstruction cache directory. "" disables the cache.
	Cache string `koanf:"cache"`
}

// Climate selects the climate source. A table wins over a location,
// which wins over the project's climate zone.
type Climate struct {
	Table     string   `koanf:"table"`
	Latitude  *float64 `koanf:"latitude"`
	Longitude *float64 `koanf:"longitude"`
	// Zone replaces the project's climate zone.
	Zone string `koanf:"zone"`
}

// HasLocation reports whether both coordinates are set.
func (c Climate) HasLocation() bool { return c.Latitude != nil && c.Longitude != nil }

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"skip-unresolved":   "skip_unresolved",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"method":            "solar.method",
	"workers":           "solar.workers",
	"obstruction-cache": "solar.cache",
	"climate-table":     "climate.table",
	"latitude":          "climate.latitude",
	"longitude":         "climate.longitude",
	"zone":              "climate.zone",
}

var sections = []string{"log", "solar", "climate"}

var (
	k        = koanf.New(".")
	fileUsed string
)

// Reset discards loaded settings. Used by tests.
func Reset() {
	k = koanf.New(".")
	fileUsed = ""
}

// FileUsed returns the config file of the last Load, or "".
func FileUsed() string { return fileUsed }

func defaults() map[string]any {
	return map[string]any{
		"skip_unresolved": false,
		"log.level":       "info",
		"log.format":      "console",
		"solar.method":    "clip",
		"solar.workers":   0,
		"solar.cache":     "",
		"climate.table":   "",
		"climate.zone":    "",
	}
}

// envKey maps ENVCONV_SOLAR_METHOD to solar.method.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(s, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return s
}

// Load reads the settings. cfgFile is an explicit config file, or "" to
// use DefaultFile if it exists. Only flags that were set on the command
// line override the other layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	fileUsed = ""

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			cfgFile = DefaultFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		fileUsed = cfgFile
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.Solar.Workers < 0 {
		errs = append(errs, fmt.Errorf("solar.workers must not be negative, got %d", c.Solar.Workers))
	}
	if (c.Climate.Latitude == nil) != (c.Climate.Longitude == nil) {
		errs = append(errs, errors.New("climate.latitude and climate.longitude must be set together"))
	}
	return errors.Join(errs...)
}
