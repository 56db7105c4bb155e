package api

import (
	"context"
	"strconv"
	"time"

	"FinSight/internal/domain/models"
	xhttp "FinSight/pkg/http"
	xlogger "FinSight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Financial serves the full company snapshot, optionally with quarterly
// trend sequences.
func (h *Handler) Financial(c echo.Context) error {
	symbol := c.Param("symbol")
	includeQuarterly := true
	if raw := c.QueryParam("include_quarterly"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("include_quarterly must be a boolean"))
		}
		includeQuarterly = v
	}

	snapshot, err := h.financial.Snapshot(c.Request().Context(), symbol, includeQuarterly)
	if err != nil {
		h.log.Error("snapshot error",
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, fetchError(err, symbol))
	}

	h.emitSnapshot(snapshot)
	return xhttp.SuccessResponse(c, snapshot)
}

// emitSnapshot fans the assembled snapshot out to the event topic and the
// archive. Both are best-effort and never block the response.
func (h *Handler) emitSnapshot(snapshot *models.CompanySnapshot) {
	if h.publisher == nil && h.archive == nil {
		return
	}
	ev := &models.SnapshotEvent{
		Symbol:      snapshot.Symbol,
		AssembledAt: snapshot.LastUpdated,
		Snapshot:    snapshot,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if h.publisher != nil {
			if err := h.publisher.PublishSnapshot(ctx, ev); err != nil {
				h.log.Warn("snapshot publish error",
					xlogger.String("symbol", ev.Symbol),
					xlogger.Error(err),
				)
			}
		}
		if h.archive != nil {
			if err := h.archive.StoreSnapshot(ctx, ev); err != nil {
				h.log.Warn("snapshot archive error",
					xlogger.String("symbol", ev.Symbol),
					xlogger.Error(err),
				)
			}
		}
	}()
}

// SnapshotHistory serves previously archived snapshots for a symbol.
func (h *Handler) SnapshotHistory(c echo.Context) error {
	if h.archive == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("snapshot archive is not enabled"))
	}

	symbol := c.Param("symbol")
	hours := 24
	if raw := c.QueryParam("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 720 {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("hours must be between 1 and 720"))
		}
		hours = v
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("limit must be between 1 and 100"))
		}
		limit = v
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	events, err := h.archive.RecentSnapshots(c.Request().Context(), normalizeSymbol(symbol), since, limit)
	if err != nil {
		h.log.Error("snapshot history error",
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to read snapshot history"))
	}

	return xhttp.SuccessResponse(c, map[string]any{
		"symbol":    normalizeSymbol(symbol),
		"hours":     hours,
		"count":     len(events),
		"snapshots": events,
	})
}

// BasicInfo serves the fast identity subset for a symbol.
func (h *Handler) BasicInfo(c echo.Context) error {
	symbol := c.Param("symbol")
	basic, err := h.financial.BasicInfo(c.Request().Context(), symbol)
	if err != nil {
		h.log.Error("basic info error",
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, fetchError(err, symbol))
	}
	return xhttp.SuccessResponse(c, basic)
}

// QuarterlyTrends serves growth trend analysis over recent quarters.
func (h *Handler) QuarterlyTrends(c echo.Context) error {
	symbol := c.Param("symbol")
	quarters := 8
	if raw := c.QueryParam("quarters"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 4 || v > 12 {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("quarters must be between 4 and 12"))
		}
		quarters = v
	}

	trends, err := h.financial.QuarterlyTrends(c.Request().Context(), symbol, quarters)
	if err != nil {
		h.log.Error("quarterly trends error",
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, fetchError(err, symbol))
	}
	return xhttp.SuccessResponse(c, trends)
}
