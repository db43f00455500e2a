package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/rela/internal/application"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".rela.yaml"

// EnvPrefix prefixes environment overrides, e.g. RELA_PYTHON or
// RELA_TEST_VERBOSITY.
const EnvPrefix = "RELA"

const pyprojectFile = "pyproject.toml"

type Loader struct{}

type fileConfig struct {
	Python            string    `yaml:"python" mapstructure:"python"`
	Marker            string    `yaml:"marker,omitempty" mapstructure:"marker"`
	NamespacePackages bool      `yaml:"namespace_packages,omitempty" mapstructure:"namespace_packages"`
	SearchPath        []string  `yaml:"search_path,omitempty" mapstructure:"search_path"`
	Test              fileTest  `yaml:"test" mapstructure:"test"`
	Watch             fileWatch `yaml:"watch" mapstructure:"watch"`
}

type fileTest struct {
	Prefix    string   `yaml:"prefix" mapstructure:"prefix"`
	Verbosity int      `yaml:"verbosity" mapstructure:"verbosity"`
	Failfast  bool     `yaml:"failfast,omitempty" mapstructure:"failfast"`
	Args      []string `yaml:"args,omitempty" mapstructure:"args"`
}

type fileWatch struct {
	Debounce   string   `yaml:"debounce" mapstructure:"debounce"`
	Extensions []string `yaml:"extensions,flow" mapstructure:"extensions"`
}

// Exists reports whether path exists or the pyproject.toml next to it
// carries a [tool.rela] table.
func (l Loader) Exists(path string) (bool, error) {
	ok, err := fileExists(path)
	if err != nil || ok {
		return ok, err
	}
	table, err := pyprojectTable(pyprojectPath(path))
	if err != nil {
		return false, err
	}
	return table != nil, nil
}

// Load layers defaults, [tool.rela] from pyproject.toml, the YAML file at
// path and RELA_* environment variables, lowest to highest.
func (l Loader) Load(path string) (application.Config, error) {
	v := viper.New()
	setDefaults(v, application.DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	table, err := pyprojectTable(pyprojectPath(path))
	if err != nil {
		return application.Config{}, err
	}
	if table != nil {
		if err := v.MergeConfigMap(table); err != nil {
			return application.Config{}, fmt.Errorf("merge %s: %w", pyprojectFile, err)
		}
	}

	ok, err := fileExists(path)
	if err != nil {
		return application.Config{}, err
	}
	if ok {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return application.Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	} else if table == nil {
		return application.Config{}, fmt.Errorf("%s: %w", path, application.ErrConfigNotFound)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return application.Config{}, fmt.Errorf("parse config: %w", err)
	}
	return fc.toConfig()
}

func setDefaults(v *viper.Viper, cfg application.Config) {
	v.SetDefault("python", cfg.Python)
	v.SetDefault("marker", cfg.Marker)
	v.SetDefault("namespace_packages", cfg.NamespacePackages)
	v.SetDefault("search_path", cfg.SearchPath)
	v.SetDefault("test.prefix", cfg.Test.Prefix)
	v.SetDefault("test.verbosity", cfg.Test.Verbosity)
	v.SetDefault("test.failfast", cfg.Test.Failfast)
	v.SetDefault("test.args", cfg.Test.Args)
	v.SetDefault("watch.debounce", cfg.Watch.Debounce.String())
	v.SetDefault("watch.extensions", cfg.Watch.Extensions)
}

func (fc fileConfig) toConfig() (application.Config, error) {
	debounce, err := time.ParseDuration(fc.Watch.Debounce)
	if err != nil {
		return application.Config{}, fmt.Errorf("watch.debounce: %w", err)
	}
	if debounce < 0 {
		return application.Config{}, fmt.Errorf("watch.debounce: must not be negative, got %s", debounce)
	}
	if strings.ContainsAny(fc.Marker, `/\`) {
		return application.Config{}, fmt.Errorf("marker: must be a file name, got %q", fc.Marker)
	}
	return application.Config{
		Python:            fc.Python,
		Marker:            fc.Marker,
		NamespacePackages: fc.NamespacePackages,
		SearchPath:        fc.SearchPath,
		Test: application.TestConfig{
			Prefix:    fc.Test.Prefix,
			Verbosity: fc.Test.Verbosity,
			Failfast:  fc.Test.Failfast,
			Args:      fc.Test.Args,
		},
		Watch: application.WatchConfig{
			Debounce:   debounce,
			Extensions: fc.Watch.Extensions,
		},
	}, nil
}

// Write encodes cfg as the YAML document Load reads back.
func Write(w io.Writer, cfg application.Config) error {
	out := fileConfig{
		Python:            cfg.Python,
		Marker:            cfg.Marker,
		NamespacePackages: cfg.NamespacePackages,
		SearchPath:        cfg.SearchPath,
		Test: fileTest{
			Prefix:    cfg.Test.Prefix,
			Verbosity: cfg.Test.Verbosity,
			Failfast:  cfg.Test.Failfast,
			Args:      cfg.Test.Args,
		},
		Watch: fileWatch{
			Debounce:   cfg.Watch.Debounce.String(),
			Extensions: cfg.Watch.Extensions,
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func pyprojectPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), pyprojectFile)
}

// pyprojectTable returns the [tool.rela] table of the given pyproject.toml,
// or nil when the file or the table is absent.
func pyprojectTable(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- sits next to the config file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var doc struct {
		Tool struct {
			Rela map[string]any `toml:"rela"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Tool.Rela, nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
