package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/edvin/directadmin/internal/logging"
	"github.com/edvin/directadmin/internal/metrics"
	"github.com/edvin/directadmin/pkg/directadmin/api"
)

func cmdExporter(ctx context.Context, args []string) {
	fs, profile := newFlagSet("exporter")
	addr := fs.String("addr", "", "Listen address (default: $METRICS_ADDR)")
	scrapeTimeout := fs.Duration("scrape-timeout", time.Minute, "Abandon a scrape after this long")
	fs.Parse(args)

	cfg := loadConfig(ctx, *profile)
	if *addr != "" {
		cfg.MetricsAddr = *addr
	}
	logger := logging.NewLogger(cfg, "dactl-exporter")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dac := open(ctx, cfg, logger, api.WithMetrics(api.NewMetrics(reg)))
	reg.MustRegister(metrics.NewUsageCollector(dac, cfg.ScrapeConcurrency, *scrapeTimeout, logger))

	srv := metrics.NewServer(cfg.MetricsAddr, reg)
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Str("level", dac.Level().String()).Msg("starting exporter")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("exporter failed")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down exporter")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
