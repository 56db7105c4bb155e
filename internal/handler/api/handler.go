package api

import (
	"strings"

	"FinSight/internal/domain/repository"
	"FinSight/internal/service/fetch"
	"FinSight/internal/usecase"
	"FinSight/pkg/config"
	xhttp "FinSight/pkg/http"
	xlogger "FinSight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Handler exposes the financial data API over Echo.
type Handler struct {
	log       *xlogger.Logger
	cfg       *config.Config
	financial *usecase.Financial
	agentic   *usecase.Agentic
	store     repository.Store
	publisher repository.Publisher
	archive   repository.Archive
}

// NewHandler creates the API handler. Publisher and archive may be nil when
// the corresponding backends are disabled.
func NewHandler(
	log *xlogger.Logger,
	cfg *config.Config,
	financial *usecase.Financial,
	agentic *usecase.Agentic,
	store repository.Store,
	publisher repository.Publisher,
	archive repository.Archive,
) *Handler {
	return &Handler{
		log:       log,
		cfg:       cfg,
		financial: financial,
		agentic:   agentic,
		store:     store,
		publisher: publisher,
		archive:   archive,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	e.GET("/financial/:symbol", h.Financial)
	e.GET("/financial/:symbol/history", h.SnapshotHistory)
	e.GET("/quarterly-trends/:symbol", h.QuarterlyTrends)
	e.GET("/basic/:symbol", h.BasicInfo)

	e.POST("/agentic-analysis", h.AgenticAnalysis)
	e.GET("/agentic-tools", h.AgenticTools)
	e.POST("/test-function-calling", h.TestFunctionCalling)
	e.POST("/test-tools", h.TestTools)

	e.POST("/cache/clear", h.CacheClear)
	e.GET("/cache/stats", h.CacheStats)
}

func normalizeSymbol(s string) string { return strings.ToUpper(s) }

// fetchError maps upstream failure kinds onto transport errors.
func fetchError(err error, symbol string) *xhttp.AppError {
	switch fetch.KindOf(err) {
	case fetch.KindNotFound:
		return xhttp.NotFoundErrorf("No data found for symbol %s", symbol).WithError(err)
	case fetch.KindRateLimited:
		return xhttp.TooManyRequestsError("Rate limited by upstream provider. Please try again in a few seconds.").WithError(err)
	case fetch.KindTimeout:
		return xhttp.TimeoutError("Upstream provider timed out").WithError(err)
	default:
		return xhttp.InternalErrorf("Internal server error: %v", err)
	}
}
