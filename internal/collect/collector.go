package collect

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/akoval/checkwatch/internal/history"
	"github.com/akoval/checkwatch/internal/receipt"
)

// Config holds the polling parameters of a Collector.
type Config struct {
	// URL is the monitored page, recorded on every stored record.
	URL string
	// Interval between successful cycles.
	Interval time.Duration
	// ErrorInterval is the delay after a failed cycle.
	ErrorInterval time.Duration
	// MaxFailures is the consecutive failure count after which the error
	// delay doubles.
	MaxFailures int
}

// Collector runs the fetch, extract, dedup and append cycle. Every cycle is
// self-contained: no state but the in-memory last-content comparator survives
// between runs, so a crashed cycle leaves the store untouched.
type Collector struct {
	cfg     Config
	fetcher Fetcher
	store   history.Store

	lastContent string
	failures    int
}

// NewCollector creates a collector over fetcher and store. Zero durations and
// counts fall back to 10s polling, a 60s error delay and 5 failures.
func NewCollector(cfg Config, fetcher Fetcher, store history.Store) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.ErrorInterval <= 0 {
		cfg.ErrorInterval = time.Minute
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	return &Collector{cfg: cfg, fetcher: fetcher, store: store}
}

// Run polls until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	slog.Info("Collector started", "url", c.cfg.URL, "interval", c.cfg.Interval)
	for {
		delay := c.runCycle(ctx)
		select {
		case <-ctx.Done():
			slog.Info("Collector stopped")
			return
		case <-time.After(delay):
		}
	}
}

// runCycle executes one pass and returns how long to wait before the next.
func (c *Collector) runCycle(ctx context.Context) time.Duration {
	content, err := c.collect(ctx)
	if err != nil {
		c.failures++
		slog.Error("Collection cycle failed", "error", err, "consecutive", c.failures)
		if c.failures >= c.cfg.MaxFailures {
			slog.Warn("Too many consecutive failures, doubling the delay")
			return 2 * c.cfg.ErrorInterval
		}
		return c.cfg.ErrorInterval
	}
	c.failures = 0

	if content == "" {
		slog.Info("No receipt content on page")
		return c.cfg.Interval
	}
	if content == c.lastContent {
		slog.Info("Content unchanged, skipping save")
		return c.cfg.Interval
	}

	added, err := c.store.Append(c.cfg.URL, content)
	if err != nil {
		slog.Error("Failed to append record", "error", err)
		return c.cfg.Interval
	}
	c.lastContent = content
	if added {
		slog.Info("New receipt content saved")
	} else {
		slog.Info("Content already stored, nothing to save")
	}
	return c.cfg.Interval
}

// collect fetches the page and joins its position blocks into one raw text
// block. "" with a nil error means nothing to save this cycle.
func (c *Collector) collect(ctx context.Context) (string, error) {
	html, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return "", err
	}
	if html == "" {
		return "", nil
	}

	blocks, err := ExtractBlocks(html)
	if err != nil {
		return "", err
	}
	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, "\n"+receipt.ItemSeparator+"\n"), nil
}
