package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimewalk/internal/config"
	"github.com/hamed0406/uptimewalk/internal/httpapi"
	"github.com/hamed0406/uptimewalk/internal/logging"
	"github.com/hamed0406/uptimewalk/internal/metrics"
	"github.com/hamed0406/uptimewalk/internal/notify"
	"github.com/hamed0406/uptimewalk/internal/probe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	walker := probe.NewWalker(logger, probe.NewBoundedResolver(cfg.DNSTimeout), cfg.DefaultTimeout)
	api := httpapi.NewServer(logger, walker, metrics.New())
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		api.Alerts = slack
		logger.Info("walk_alerts_enabled", zap.String("channel", "slack"))
	}

	if len(cfg.APIKeys) == 0 {
		logger.Warn("api_keys_empty", zap.String("hint", "POST /walk is open to anyone who can reach "+cfg.Addr))
	}
	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	h := api.Router(cfg.APIKeys, cfg.AllowedOrigins, cfg.RateLimitRPM, cfg.RateLimitBurst)
	if err := http.ListenAndServe(cfg.Addr, h); err != nil {
		logger.Fatal("api_stopped", zap.Error(err))
	}
}
