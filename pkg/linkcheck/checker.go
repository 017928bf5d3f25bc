package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// HTTPClient is the subset of *http.Client the checker uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls how links are resolved.
type Config struct {
	// Interval is the minimum time between requests to one host.
	Interval time.Duration
	// Timeout bounds each request.
	Timeout time.Duration
	// Retries is the number of extra attempts after a timeout, a
	// transport error or a 5xx response.
	Retries int
	// Concurrency is the number of hosts checked in parallel.
	Concurrency int
	UserAgent   string
	// Accept is sent so that servers doing content negotiation answer
	// with RDF.
	Accept    string
	SkipHosts []string
}

// DefaultConfig returns a polite configuration for public servers.
func DefaultConfig() Config {
	return Config{
		Interval:    500 * time.Millisecond,
		Timeout:     15 * time.Second,
		Retries:     1,
		Concurrency: 4,
		UserAgent:   "kmdp-linkcheck/1.0",
		Accept:      "application/rdf+xml, text/turtle;q=0.9, application/ld+json;q=0.8, */*;q=0.1",
	}
}

// Checker resolves links, caching results for the life of the Checker.
type Checker struct {
	cfg    Config
	client HTTPClient
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cache    map[string]*Result
}

// NewChecker creates a checker. A nil client uses an http.Client that
// reports redirects instead of following them.
func NewChecker(cfg Config, client HTTPClient, logger *slog.Logger) *Checker {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Checker{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		cache:    make(map[string]*Result),
	}
}

// Check resolves every link. Links on one host are checked in sequence,
// hosts in parallel. It returns an error only when ctx is cancelled.
func (c *Checker) Check(ctx context.Context, links []Link) (*Report, error) {
	report := newReport()

	byHost := make(map[string][]Link)
	var hosts []string
	for _, link := range links {
		host := hostOf(link.URI)
		if _, seen := byHost[host]; !seen {
			hosts = append(hosts, host)
		}
		byHost[host] = append(byHost[host], link)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for _, host := range hosts {
		g.Go(func() error {
			for _, link := range byHost[host] {
				if err := gctx.Err(); err != nil {
					return err
				}
				result := c.resolve(gctx, link, host)
				mu.Lock()
				report.add(result)
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("link check cancelled: %w", err)
	}
	report.finalize()

	c.logger.Info("Links checked",
		"links", report.Total,
		"failed", len(report.Failures),
		"skipped", report.Skipped,
		"duration_ms", report.DurationMs)
	return report, nil
}

func (c *Checker) resolve(ctx context.Context, link Link, host string) *Result {
	if host == "" || !isHTTP(link.URI) || slices.Contains(c.cfg.SkipHosts, host) {
		return &Result{URI: link.URI, Host: host, Status: StatusSkipped, Sources: link.Sources}
	}

	c.mu.Lock()
	cached, ok := c.cache[link.URI]
	c.mu.Unlock()
	if ok {
		result := *cached
		result.Sources = link.Sources
		return &result
	}

	var result *Result
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 250 * time.Millisecond
			select {
			case <-ctx.Done():
				return &Result{URI: link.URI, Host: host, Status: StatusError, Error: "cancelled", Sources: link.Sources}
			case <-time.After(backoff):
			}
		}

		result = c.request(ctx, link.URI, host, http.MethodHead)
		if result.StatusCode == http.StatusMethodNotAllowed || result.StatusCode == http.StatusNotImplemented {
			result = c.request(ctx, link.URI, host, http.MethodGet)
		}
		if !retryable(result) {
			break
		}
		c.logger.Debug("Retrying link", "uri", link.URI, "attempt", attempt+1, "status", result.Status)
	}

	c.mu.Lock()
	c.cache[link.URI] = result
	c.mu.Unlock()

	out := *result
	out.Sources = link.Sources
	return &out
}

func retryable(r *Result) bool {
	return r.Status == StatusTimeout || r.Status == StatusError || r.StatusCode >= 500
}

func (c *Checker) request(ctx context.Context, uri, host, method string) *Result {
	result := &Result{URI: uri, Host: host}
	started := time.Now()
	defer func() { result.ElapsedMs = time.Since(started).Milliseconds() }()

	if err := c.limiter(host).Wait(ctx); err != nil {
		result.Status, result.Error = StatusError, err.Error()
		return result
	}

	reqCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, uri, nil)
	if err != nil {
		result.Status, result.Error = StatusError, err.Error()
		return result
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Accept != "" {
		req.Header.Set("Accept", c.cfg.Accept)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			result.Status, result.Error = StatusTimeout, "request timed out"
		} else {
			result.Status, result.Error = StatusError, err.Error()
		}
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode < 300:
		result.Status = StatusResolved
	case resp.StatusCode < 400:
		result.Status = StatusRedirected
		result.Location = resp.Header.Get("Location")
	default:
		result.Status = StatusBroken
	}
	return result
}

func (c *Checker) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		limit := rate.Inf
		if c.cfg.Interval > 0 {
			limit = rate.Every(c.cfg.Interval)
		}
		l = rate.NewLimiter(limit, 1)
		c.limiters[host] = l
	}
	return l
}

func isHTTP(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}
