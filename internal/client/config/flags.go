package config

import (
	"flag"
	"time"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend base URL
//	-i int      online check interval in seconds
//	-d string   path to the local database file
//	-k string   API key sent as X-API-Key
//
// Only these flags are looked at (see filterArgs), so other components can
// define their own.
func parseFlags(cfg *Config, args []string) {
	args = filterArgs(args, []string{"-a", "-i", "-d", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend base URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
