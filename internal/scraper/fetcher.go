package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"cricpulse/internal/config"
	"cricpulse/internal/infrastructure"
)

// Fetcher renders pages through a headless browser so tables built by
// client-side scripts are present in the HTML. Fetches are rate limited
// and retried with linear backoff.
type Fetcher struct {
	cfg     config.ScraperConfig
	logger  *slog.Logger
	limiter *rate.Limiter

	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewFetcher creates a fetcher with its own browser allocator.
func NewFetcher(cfg config.ScraperConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &Fetcher{
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "fetcher")),
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		allocCtx:    allocCtx,
		allocCancel: cancel,
	}
}

// Close releases the browser allocator.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// FetchHTML renders the page at url and returns the document HTML after
// the given selector becomes visible. Retries per config.
func (f *Fetcher) FetchHTML(ctx context.Context, url, waitSelector string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.Retries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}

		html, err := f.fetchOnce(ctx, url, waitSelector)
		if err == nil {
			infrastructure.ScrapeFetchesTotal.WithLabelValues("success").Inc()
			return html, nil
		}
		lastErr = err
		infrastructure.ScrapeFetchesTotal.WithLabelValues("failure").Inc()

		f.logger.WarnContext(ctx, "fetch failed",
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		// linear backoff between attempts
		if attempt < f.cfg.Retries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.cfg.Backoff * time.Duration(attempt)):
			}
		}
	}
	return "", fmt.Errorf("fetch %s failed after %d attempts: %w", url, f.cfg.Retries, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url, waitSelector string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()

	timeout := f.cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	// honor caller cancellation alongside the tab timeout
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-done:
		}
	}()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
	}
	if waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", err
	}
	return html, nil
}
