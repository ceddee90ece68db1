// Package config loads the database configuration for the command line
// tools. Precedence, highest first: changed flags, DB_* environment
// variables, the YAML file, built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/alqosama35/orm"
)

// EnvPrefix is the prefix of environment overrides, e.g. DB_HOST.
const EnvPrefix = "DB_"

// envAliases maps environment names that differ from the config keys.
var envAliases = map[string]string{
	"username": "user",
	"name":     "database",
}

// flagKeys lists the flags that map onto config keys.
var flagKeys = map[string]string{
	"driver":            "driver",
	"host":              "host",
	"port":              "port",
	"user":              "user",
	"password":          "password",
	"database":          "database",
	"charset":           "charset",
	"retry-delay":       "retry_delay",
	"connect-timeout":   "connect_timeout",
	"statement-timeout": "statement_timeout",
}

func defaults() map[string]any {
	return map[string]any{
		"driver":          orm.DefaultDriver,
		"host":            orm.DefaultHost,
		"user":            orm.DefaultUser,
		"password":        "",
		"database":        orm.DefaultDatabase,
		"charset":         orm.DefaultCharset,
		"collation":       orm.DefaultCollation,
		"connect_timeout": orm.DefaultConnectTimeout,
		"retry_delay":     orm.DefaultRetryDelay,
		"max_open_conns":  orm.DefaultMaxOpenConns,
		"max_idle_conns":  orm.DefaultMaxIdleConns,
	}
}

// Load builds a Config from the optional YAML file at path, the environment
// and flags. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (orm.Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return orm.Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return orm.Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return orm.Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return orm.Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg orm.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return orm.Config{}, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return orm.Config{}, err
	}
	return cfg, nil
}

// envKey transforms DB_CONNECT_TIMEOUT into connect_timeout.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if alias, ok := envAliases[key]; ok {
		return alias
	}
	return key
}
