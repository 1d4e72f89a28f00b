package config

import (
	"flag"
	"io"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags. Only
// the flags it knows about are kept, so other components may share args.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-r", "-i", "-s", "-l", "-m"})

	fs := flag.NewFlagSet("vocab", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local database path")
	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "remote store DSN")
	onlineCheck := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncCheck := fs.Int("s", int(cfg.SyncCheckInterval.Seconds()), "pending queue check interval (in seconds)")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheck) * time.Second
	cfg.SyncCheckInterval = time.Duration(*syncCheck) * time.Second
	return nil
}
