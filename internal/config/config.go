// Package config defines the compiler's frozen settings record (spec
// §9: {root, out_dir, dialect, env, mode}) and loads overrides from an
// optional fabric.yaml via spf13/viper, the way the teacher layers
// project-level YAML under CLI flags in internal/config.
package config

import (
	"fmt"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/spf13/viper"
)

// knownKeys is the full set of settings fabric.yaml may declare.
// Anything else is a load error (spec §9: "unknown options at load
// time are rejected").
var knownKeys = map[string]bool{
	"root": true, "out_dir": true, "dialect": true, "env": true, "mode": true,
}

// Settings is the frozen record every pipeline stage reads from; it
// is never mutated after Load returns.
type Settings struct {
	Root    string
	OutDir  string
	Dialect string
	Env     string
	Mode    string
}

// Load reads fabric.yaml (if present) from configDir, overlays any
// CLI-supplied overrides, and returns the frozen Settings.
func Load(configDir string, overrides Settings) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("fabric")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetDefault("out_dir", "build")
	v.SetDefault("dialect", "postgres")
	v.SetDefault("env", "dev")
	v.SetDefault("mode", "dry-run")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, &cerrors.IOError{Path: configDir + "/fabric.yaml", Err: err}
		}
	}

	for _, key := range v.AllKeys() {
		if !knownKeys[key] {
			return nil, &cerrors.IOError{Path: configDir + "/fabric.yaml", Err: fmt.Errorf("unknown config key %q", key)}
		}
	}

	s := &Settings{
		Root:    v.GetString("root"),
		OutDir:  v.GetString("out_dir"),
		Dialect: v.GetString("dialect"),
		Env:     v.GetString("env"),
		Mode:    v.GetString("mode"),
	}

	applyOverride(&s.Root, overrides.Root)
	applyOverride(&s.OutDir, overrides.OutDir)
	applyOverride(&s.Dialect, overrides.Dialect)
	applyOverride(&s.Env, overrides.Env)
	applyOverride(&s.Mode, overrides.Mode)

	return s, nil
}

func applyOverride(field *string, override string) {
	if override != "" {
		*field = override
	}
}
