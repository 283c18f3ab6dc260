// Package cli holds the settings and failure reporting shared by the syncgen
// commands.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/rebrowser/syncgen/pkg/config"
	"github.com/rebrowser/syncgen/pkg/docs"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
)

// EnvPrefix prefixes every environment setting, e.g. SYNCGEN_DOCS.
const EnvPrefix = "SYNCGEN"

// Settings are read from the environment only; the commands take no flags
// that change generation.
type Settings struct {
	Config    string
	Docs      string
	LogFormat string
	LogLevel  string
}

// NewViper returns a viper instance bound to the SYNCGEN_ environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("config", "")
	v.SetDefault("docs", "")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_level", "warn")
	return v
}

// Load reads the settings from v.
func Load(v *viper.Viper) Settings {
	return Settings{
		Config:    v.GetString("config"),
		Docs:      v.GetString("docs"),
		LogFormat: v.GetString("log_format"),
		LogLevel:  v.GetString("log_level"),
	}
}

// InitLogger configures the process logger. Logs go to stderr.
func (s Settings) InitLogger() error {
	if err := logger.Initialize(s.LogFormat, s.LogLevel); err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "%s_LOG_LEVEL", EnvPrefix),
			"use one of debug, info, warn, error")
	}
	return nil
}

// LoadPolicy returns the built-in policy, overlaid with SYNCGEN_CONFIG when set.
func (s Settings) LoadPolicy() (*config.Policy, error) {
	if s.Config == "" {
		return config.Default(), nil
	}
	return config.Load(s.Config)
}

// LoadDocs returns the documentation source named by SYNCGEN_DOCS, or an empty
// one.
func (s Settings) LoadDocs() (docs.Provider, error) {
	if s.Docs == "" {
		return docs.Static(nil), nil
	}
	return docs.Load(s.Docs)
}

// Report writes a one-line diagnostic for err to w, followed by any hints.
func Report(w io.Writer, command string, err error) {
	fmt.Fprintf(w, "%s: %v\n", command, err)
	if hints := errors.FlattenHints(err); hints != "" {
		for _, line := range strings.Split(hints, "\n") {
			fmt.Fprintf(w, "  hint: %s\n", line)
		}
	}
}
