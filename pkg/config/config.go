package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/dynreg/pkg/errors"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "DYNREG_"

// Log configures pkg/logging
type Log struct {
	Verbosity int    `koanf:"verbosity" toml:"verbosity"`
	File      string `koanf:"file" toml:"file"`
}

// Directory lists the caches created at startup besides "default"
type Directory struct {
	Registries []string `koanf:"registries" toml:"registries"`
}

// Output configures how objects are printed
type Output struct {
	Format string `koanf:"format" toml:"format"`
}

// Shell configures the interactive shell
type Shell struct {
	Prompt      string `koanf:"prompt" toml:"prompt"`
	HistoryFile string `koanf:"history_file" toml:"history_file"`
}

// Config is the main configuration structure
type Config struct {
	Log       Log       `koanf:"log" toml:"log"`
	Directory Directory `koanf:"directory" toml:"directory"`
	Output    Output    `koanf:"output" toml:"output"`
	Shell     Shell     `koanf:"shell" toml:"shell"`

	// Source is the user file that was loaded, if any
	Source string `koanf:"-" toml:"-"`
}

// Default returns the embedded defaults alone
func Default() *Config {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		panic(err)
	}
	cfg, err := decode(k)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load merges the defaults, the user file and the environment. path names
// the user file; when empty the XDG location is used if present. An explicit
// path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User file
	source, err := userFile(path)
	if err != nil {
		return nil, err
	}
	if source != "" {
		if err := k.Load(file.Provider(source), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", source).
				WithDetail("path", source)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to read environment")
	}

	cfg, err := decode(k)
	if err != nil {
		return nil, err
	}
	cfg.Source = source
	return cfg, nil
}

// UserPath returns the XDG location of the user config file
func UserPath() string {
	return filepath.Join(xdg.ConfigHome, "dynreg", "config.toml")
}

func userFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", path).
				WithDetail("path", path)
		}
		return path, nil
	}
	if _, err := os.Stat(UserPath()); err == nil {
		return UserPath(), nil
	}
	return "", nil
}

// envKey maps DYNREG_SHELL_HISTORY_FILE to shell.history_file
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func decode(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return &cfg, nil
}
