package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimewalk/internal/config"
)

// newPreflightCmd checks the API server's environment before deploy.
func newPreflightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Validate the API server environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return preflight(cmd.OutOrStdout(), cfg)
		},
	}
}

func preflight(w io.Writer, cfg config.Config) error {
	ok := func(msg string) { fmt.Fprintln(w, "✔", msg) }
	warn := func(msg string) { fmt.Fprintln(w, "⚠", msg) }

	ok("API_ADDR=" + cfg.Addr)
	ok(fmt.Sprintf("DNS_TIMEOUT=%s WALK_DEFAULT_TIMEOUT=%s", cfg.DNSTimeout, cfg.DefaultTimeout))

	if len(cfg.APIKeys) == 0 {
		warn("API_KEYS empty; POST /walk is unauthenticated.")
	}
	for _, k := range cfg.APIKeys {
		if strings.TrimSpace(k) != k || k == "" {
			warn("API_KEYS contains blank or padded entries; use key1,key2 with no spaces")
			break
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; any origin may call the API from a browser.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}
	if cfg.RateLimitRPM <= 0 {
		warn("RATE_LIMIT_RPM is 0; rate limiting disabled.")
	}

	ok("preflight passed")
	return nil
}
