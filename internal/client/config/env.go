package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// parseEnv loads dotenvPath (when it exists) into the process environment
// and overlays DIARY_* variables onto cfg. Variables that are not set leave
// the current value alone. Variables already present in the environment win
// over the .env file.
//
// Panics on a malformed .env file or an unparsable variable.
func parseEnv(cfg *Config, dotenvPath string) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		panic(err)
	}
}
