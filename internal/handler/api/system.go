package api

import (
	"fmt"
	"sort"
	"time"

	xhttp "FinSight/pkg/http"
	xlogger "FinSight/pkg/logger"

	"github.com/labstack/echo/v4"
)

const serviceVersion = "1.0.0"

// Root serves basic service identity.
func (h *Handler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]any{
		"service": "FinSight Financial Data API",
		"version": serviceVersion,
		"health":  "/health",
		"metrics": h.cfg.Metrics.Path,
	})
}

// Health reports service status plus cache and pacing configuration.
func (h *Handler) Health(c echo.Context) error {
	stats := h.store.Stats(c.Request().Context())

	return xhttp.SuccessResponse(c, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"rate_limiting": map[string]any{
			"min_request_interval_seconds": h.cfg.Upstream.MinRequestInterval.Seconds(),
			"max_retries":                  h.cfg.Upstream.MaxRetries,
			"base_delay_seconds":           h.cfg.Upstream.BaseDelay.Seconds(),
		},
		"cache": map[string]any{
			"cache_size":        stats.Size,
			"cache_max_size":    stats.MaxSize,
			"cache_ttl_seconds": stats.TTLSeconds,
		},
		"version": serviceVersion,
		"features": []string{
			"rate_limiting",
			"caching",
			"retry_with_backoff",
			"upstream_integration",
		},
	})
}

// CacheClear drops every cached fetch result.
func (h *Handler) CacheClear(c echo.Context) error {
	removed := h.store.Clear(c.Request().Context())
	h.log.Info("cache cleared", xlogger.Int("removed", removed))

	return xhttp.SuccessResponse(c, map[string]any{
		"status":    "success",
		"message":   fmt.Sprintf("Cache cleared - removed %d items", removed),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// CacheStats reports per-entry cache ages, youngest first.
func (h *Handler) CacheStats(c echo.Context) error {
	stats := h.store.Stats(c.Request().Context())
	sort.Slice(stats.Entries, func(i, j int) bool {
		return stats.Entries[i].AgeSeconds < stats.Entries[j].AgeSeconds
	})

	return xhttp.SuccessResponse(c, map[string]any{
		"cache_size":        stats.Size,
		"cache_max_size":    stats.MaxSize,
		"cache_ttl_seconds": stats.TTLSeconds,
		"cache_items":       stats.Entries,
		"timestamp":         time.Now().Format(time.RFC3339),
	})
}
