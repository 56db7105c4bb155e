package api

import (
	"context"

	"FinSight/internal/domain/models"
	"FinSight/internal/usecase"
	xhttp "FinSight/pkg/http"
	xlogger "FinSight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AgenticAnalysis runs the model-directed tool-calling analysis loop.
func (h *Handler) AgenticAnalysis(c echo.Context) error {
	req := &models.AgenticAnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	h.log.Info("starting agentic analysis", xlogger.String("ticker", req.Ticker))

	result, err := h.agentic.Analyze(c.Request().Context(), req)
	if err != nil {
		h.log.Error("agentic analysis error",
			xlogger.String("ticker", req.Ticker),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, fetchError(err, req.Ticker))
	}

	h.log.Info("agentic analysis completed", xlogger.String("ticker", req.Ticker))
	return xhttp.SuccessResponse(c, map[string]any{
		"success":       true,
		"ticker":        req.Ticker,
		"analysis_type": req.AnalysisType,
		"result":        result,
	})
}

// AgenticTools lists the tool catalogue available to the model.
func (h *Handler) AgenticTools(c echo.Context) error {
	descriptions := usecase.ToolDescriptions()
	names := make([]string, 0, len(descriptions))
	for _, decl := range usecase.ToolCatalogue() {
		names = append(names, decl.Name)
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"available_tools":    len(descriptions),
		"tools":              descriptions,
		"description":        "These tools can be dynamically called by the AI based on analysis needs",
		"tool_registry_keys": names,
	})
}

// TestFunctionCalling verifies the model emits tool calls for a minimal
// single-tool prompt.
func (h *Handler) TestFunctionCalling(c echo.Context) error {
	ticker := c.QueryParam("ticker")
	apiKey := c.QueryParam("gemini_api_key")
	if ticker == "" || apiKey == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker and gemini_api_key are required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.cfg.Gemini.TestTimeout)
	defer cancel()

	result, err := h.agentic.TestFunctionCalling(ctx, ticker, apiKey)
	if err != nil {
		h.log.Error("function calling test error",
			xlogger.String("ticker", ticker),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, fetchError(err, ticker))
	}
	return xhttp.SuccessResponse(c, result)
}

// TestTools exercises a subset of tools directly, bypassing the model.
func (h *Handler) TestTools(c echo.Context) error {
	ticker := c.QueryParam("ticker")
	if ticker == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker is required"))
	}

	h.log.Info("testing tools directly", xlogger.String("ticker", ticker))
	return xhttp.SuccessResponse(c, h.agentic.TestTools(c.Request().Context(), ticker))
}
