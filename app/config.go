package app

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/saylorsolutions/dccctl/cli"
	"github.com/saylorsolutions/dccctl/logx"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyLogLevel   = "log-level"
	KeyConfigFile = "config-file"
	KeyEnvFile    = "env-file"

	EnvPrefix = "DCC"
)

var ErrConfig = errors.New("configuration error")

// NewConfig layers configuration sources, in increasing order of precedence: defaults, config file, environment, flags.
// Environment variables are prefixed with [EnvPrefix], and dashes are replaced with underscores, like DCC_LOG_LEVEL.
// Variables from an env file are added to the environment, without replacing variables that are already set.
func NewConfig(fs *flag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyLogLevel, cli.DefaultLogLevel)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("%w: binding flags: %w", ErrConfig, err)
		}
	}
	if file := v.GetString(KeyEnvFile); len(file) > 0 {
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("%w: loading %s: %w", ErrConfig, file, err)
		}
	}
	if file := v.GetString(KeyConfigFile); len(file) > 0 {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrConfig, file, err)
		}
	}
	return v, nil
}

// NewEnv creates the configuration, and a logger writing to logOut at the configured level.
func NewEnv(fs *flag.FlagSet, logOut io.Writer) (*Env, error) {
	v, err := NewConfig(fs)
	if err != nil {
		return nil, err
	}
	levels, err := logx.NewLevels(v.GetInt(KeyLogLevel))
	if err != nil {
		return nil, cli.NewUsageError("argument -l/--log-level: %w", err)
	}
	return &Env{
		Config: v,
		Levels: levels,
		Log:    logx.New(logOut, levels),
	}, nil
}
