package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"sync"
	"time"

	"FinSight/internal/service/fetch"
	"FinSight/internal/service/ratelimit"
	applogger "FinSight/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const (
	crumbTTL  = time.Hour
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// pacerKey serializes all upstream calls behind one spacing bucket.
	pacerKey = "upstream"
)

// Config holds upstream client configuration.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	MinRequestInterval time.Duration
}

// Client talks to the Yahoo Finance quoteSummary, fundamentals-timeseries
// and chart APIs. It implements repository.MarketData.
//
// Yahoo requires a session cookie plus a "crumb" token on quoteSummary
// calls: hit a landing page to get the cookie, then fetch the crumb with it.
// The crumb is cached for an hour and dropped on 401/403 so the next call
// re-authenticates.
type Client struct {
	http  *resty.Client
	pacer *ratelimit.Pacer
	log   *applogger.Logger

	crumbMu  sync.Mutex
	crumb    string
	crumbExp time.Time
}

// NewClient creates an upstream client.
func NewClient(cfg Config, log *applogger.Logger) *Client {
	jar, _ := cookiejar.New(nil)

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetCookieJar(jar)

	return &Client{
		http:  rc,
		pacer: ratelimit.NewPacer(cfg.MinRequestInterval),
		log:   log,
	}
}

func (c *Client) getCrumb(ctx context.Context) (string, error) {
	c.crumbMu.Lock()
	defer c.crumbMu.Unlock()

	if c.crumb != "" && time.Now().Before(c.crumbExp) {
		return c.crumb, nil
	}

	// Seed the cookie jar; status does not matter.
	seed, err := c.http.R().SetContext(ctx).Get("https://fc.yahoo.com")
	if err != nil && seed == nil {
		return "", fmt.Errorf("seed request failed: %w", err)
	}

	resp, err := c.http.R().SetContext(ctx).Get("/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("crumb request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("crumb endpoint returned %d", resp.StatusCode())
	}

	crumb := strings.TrimSpace(resp.String())
	if crumb == "" {
		return "", fmt.Errorf("empty crumb returned")
	}

	c.crumb = crumb
	c.crumbExp = time.Now().Add(crumbTTL)
	c.log.Debug("upstream crumb obtained")
	return crumb, nil
}

func (c *Client) dropCrumb() {
	c.crumbMu.Lock()
	c.crumb = ""
	c.crumbExp = time.Time{}
	c.crumbMu.Unlock()
}

// get runs one paced GET and classifies the outcome.
func (c *Client) get(ctx context.Context, op, path string, query map[string]string, out any) error {
	if err := c.pacer.Wait(ctx, pacerKey); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		Get(path)

	return c.classify(op, resp, err)
}

// getWithCrumb runs a paced GET carrying the crumb token, re-authenticating
// once on a stale session.
func (c *Client) getWithCrumb(ctx context.Context, op, path string, query map[string]string, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		crumb, err := c.getCrumb(ctx)
		if err != nil {
			return fetch.NewError(fetch.KindTransient, op, err)
		}

		q := make(map[string]string, len(query)+1)
		for k, v := range query {
			q[k] = v
		}
		q["crumb"] = crumb

		err = c.get(ctx, op, path, q, out)
		if err != nil && fetch.KindOf(err) == fetch.KindFatal && attempt == 0 {
			c.dropCrumb()
			continue
		}
		return err
	}
	return nil
}

func (c *Client) classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return fetch.NewError(fetch.KindTimeout, op, err)
		}
		return fetch.NewError(fetch.KindTransient, op, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return fetch.NewError(fetch.KindRateLimited, op, fmt.Errorf("status %d", code))
	case code == http.StatusNotFound:
		return fetch.NewError(fetch.KindNotFound, op, fmt.Errorf("status %d", code))
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fetch.NewError(fetch.KindFatal, op, fmt.Errorf("status %d", code))
	case code >= 500:
		return fetch.NewError(fetch.KindTransient, op, fmt.Errorf("status %d", code))
	default:
		return fetch.NewError(fetch.KindFatal, op, fmt.Errorf("unexpected status %d", code))
	}
}

// raw extracts the numeric "raw" member of a Yahoo formatted value, which
// arrives either as {"raw": n, "fmt": "..."} or as a bare number.
func raw(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case map[string]any:
		if r, ok := t["raw"].(float64); ok {
			return r, true
		}
	}
	return 0, false
}
