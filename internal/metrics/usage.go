package metrics

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/directadmin/pkg/directadmin"
)

const (
	resourceBandwidth = "bandwidth"
	resourceDisk      = "disk"
)

// UsageCollector exports per-account usage and limits of every account the
// context can see. Each scrape fetches fresh data; scrapes are serialized.
type UsageCollector struct {
	dac         *directadmin.Context
	concurrency int
	timeout     time.Duration
	logger      zerolog.Logger

	mu sync.Mutex

	up             *prometheus.Desc
	accounts       *prometheus.Desc
	scrapeErrors   *prometheus.Desc
	scrapeDuration *prometheus.Desc
	used           *prometheus.Desc
	limit          *prometheus.Desc
	unlimited      *prometheus.Desc
	suspended      *prometheus.Desc
}

type accountUsage struct {
	name      string
	level     directadmin.Level
	suspended bool
	used      map[string]float64
	limits    map[string]directadmin.Quota
}

// NewUsageCollector creates a collector fetching at most concurrency accounts
// at a time. A scrape is abandoned after timeout.
func NewUsageCollector(dac *directadmin.Context, concurrency int, timeout time.Duration, logger zerolog.Logger) *UsageCollector {
	if concurrency < 1 {
		concurrency = 1
	}
	accountLabels := []string{"account", "level"}
	resourceLabels := []string{"account", "level", "resource"}
	return &UsageCollector{
		dac:         dac,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,

		up: prometheus.NewDesc("directadmin_up",
			"Whether the account listing could be fetched", nil, nil),
		accounts: prometheus.NewDesc("directadmin_accounts",
			"Number of exported accounts by level", []string{"level"}, nil),
		scrapeErrors: prometheus.NewDesc("directadmin_scrape_account_errors",
			"Accounts that could not be fetched during the last scrape", nil, nil),
		scrapeDuration: prometheus.NewDesc("directadmin_scrape_duration_seconds",
			"Duration of the last scrape", nil, nil),
		used: prometheus.NewDesc("directadmin_account_used_megabytes",
			"Resource usage of the account in MB", resourceLabels, nil),
		limit: prometheus.NewDesc("directadmin_account_limit_megabytes",
			"Resource limit of the account in MB, absent when unlimited", resourceLabels, nil),
		unlimited: prometheus.NewDesc("directadmin_account_limit_unlimited",
			"1 if the account has no limit on the resource", resourceLabels, nil),
		suspended: prometheus.NewDesc("directadmin_account_suspended",
			"1 if the account is suspended", accountLabels, nil),
	}
}

func (c *UsageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.accounts
	ch <- c.scrapeErrors
	ch <- c.scrapeDuration
	ch <- c.used
	ch <- c.limit
	ch <- c.unlimited
	ch <- c.suspended
}

func (c *UsageCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	usages, failed, err := c.scrape(ctx)
	defer func() {
		ch <- prometheus.MustNewConstMetric(c.scrapeDuration, prometheus.GaugeValue, time.Since(start).Seconds())
	}()
	if err != nil {
		c.logger.Error().Err(err).Msg("usage scrape failed")
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.scrapeErrors, prometheus.GaugeValue, float64(failed))

	counts := make(map[directadmin.Level]int)
	for _, u := range usages {
		counts[u.level]++
		level := u.level.String()

		ch <- prometheus.MustNewConstMetric(c.suspended, prometheus.GaugeValue, boolValue(u.suspended), u.name, level)
		for _, res := range []string{resourceBandwidth, resourceDisk} {
			ch <- prometheus.MustNewConstMetric(c.used, prometheus.GaugeValue, u.used[res], u.name, level, res)

			q := u.limits[res]
			ch <- prometheus.MustNewConstMetric(c.unlimited, prometheus.GaugeValue, boolValue(q.IsUnlimited()), u.name, level, res)
			if v, limited := q.Value(); limited {
				ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, v, u.name, level, res)
			}
		}
	}
	for _, level := range []directadmin.Level{directadmin.LevelUser, directadmin.LevelReseller, directadmin.LevelAdmin} {
		ch <- prometheus.MustNewConstMetric(c.accounts, prometheus.GaugeValue, float64(counts[level]), level.String())
	}
}

// scrape lists the visible accounts and fetches each one. Accounts that fail
// are logged and counted, not fatal.
func (c *UsageCollector) scrape(ctx context.Context) ([]*accountUsage, int, error) {
	c.dac.ClearCache()
	names, err := visibleAccounts(ctx, c.dac)
	if err != nil {
		return nil, 0, err
	}

	results := make([]*accountUsage, len(names))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, name := range names {
		g.Go(func() error {
			u, err := fetchUsage(gctx, c.dac, name)
			if err != nil {
				c.logger.Warn().Err(err).Str("account", name).Msg("skipping account")
				failed.Add(1)
				return nil
			}
			results[i] = u
			return nil
		})
	}
	_ = g.Wait()

	usages := make([]*accountUsage, 0, len(results))
	for _, u := range results {
		if u != nil {
			usages = append(usages, u)
		}
	}
	return usages, int(failed.Load()), nil
}

// visibleAccounts returns the accounts the context manages, itself included.
func visibleAccounts(ctx context.Context, dac *directadmin.Context) ([]string, error) {
	names := []string{dac.Username()}

	var listed []string
	var err error
	switch dac.Level() {
	case directadmin.LevelReseller:
		listed, err = dac.Users(ctx)
	case directadmin.LevelAdmin:
		listed, err = dac.AllUsers(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	for _, name := range listed {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names, nil
}

func fetchUsage(ctx context.Context, dac *directadmin.Context, name string) (*accountUsage, error) {
	a, err := dac.LoadAccount(ctx, name)
	if err != nil {
		return nil, err
	}

	u := &accountUsage{
		name:   a.Name(),
		level:  a.Level(),
		used:   make(map[string]float64, 2),
		limits: make(map[string]directadmin.Quota, 2),
	}
	if u.suspended, err = a.Suspended(ctx); err != nil {
		return nil, err
	}
	if u.limits[resourceBandwidth], err = a.Bandwidth(ctx); err != nil {
		return nil, err
	}
	if u.limits[resourceDisk], err = a.DiskQuota(ctx); err != nil {
		return nil, err
	}
	if u.used[resourceBandwidth], err = a.BandwidthUsage(ctx); err != nil {
		return nil, err
	}
	if u.used[resourceDisk], err = a.DiskUsage(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
