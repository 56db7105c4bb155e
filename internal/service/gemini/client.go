package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"FinSight/internal/domain/models"
	"FinSight/internal/service/fetch"
	"FinSight/internal/service/ratelimit"
	applogger "FinSight/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// Config holds model provider configuration.
type Config struct {
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MinCallInterval time.Duration
	MaxRetries      int
}

// Client talks to the Gemini generateContent REST API. It implements
// repository.ChatModel.
//
// Calls are paced per credential so concurrent loops sharing a key do not
// trip the provider's free-tier limits, and 429s back off exponentially
// before surfacing.
type Client struct {
	http  *resty.Client
	pacer *ratelimit.Pacer
	log   *applogger.Logger
	cfg   Config

	sleep     func(ctx context.Context, d time.Duration) error
	randFloat func() float64
}

// NewClient creates a model client.
func NewClient(cfg Config, log *applogger.Logger) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:      rc,
		pacer:     ratelimit.NewPacer(cfg.MinCallInterval),
		log:       log,
		cfg:       cfg,
		sleep:     sleepCtx,
		randFloat: rand.Float64,
	}
}

// credentialKey identifies a pacing bucket without holding the full secret.
func credentialKey(apiKey string) string {
	if len(apiKey) > 10 {
		return apiKey[:10]
	}
	return apiKey
}

type generateRequest struct {
	Contents         []models.Content        `json:"contents"`
	Tools            []toolsEntry            `json:"tools,omitempty"`
	GenerationConfig models.GenerationConfig `json:"generationConfig"`
}

type toolsEntry struct {
	FunctionDeclarations []models.ToolDeclaration `json:"functionDeclarations"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []models.Part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateWithTools runs one model turn with the given conversation history
// and tool catalogue.
func (c *Client) GenerateWithTools(ctx context.Context, apiKey string, history []models.Content,
	tools []models.ToolDeclaration, cfg models.GenerationConfig) (*models.ModelTurn, error) {

	const op = "generate_content"

	req := generateRequest{
		Contents:         history,
		GenerationConfig: cfg,
	}
	if len(tools) > 0 {
		req.Tools = []toolsEntry{{FunctionDeclarations: tools}}
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.cfg.Model)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := c.pacer.Wait(ctx, credentialKey(apiKey)); err != nil {
			return nil, err
		}

		var out generateResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("key", apiKey).
			SetBody(req).
			SetResult(&out).
			Post(path)

		lastErr = c.classify(op, resp, err, &out)
		if lastErr == nil {
			return decodeTurn(&out), nil
		}

		if fetch.KindOf(lastErr) != fetch.KindRateLimited || attempt == c.cfg.MaxRetries-1 {
			return nil, lastErr
		}

		delay := time.Duration((math.Pow(2, float64(attempt)) + 1 + c.randFloat()*2) * float64(time.Second))
		c.log.Warn("model rate limited, backing off",
			applogger.Int("attempt", attempt+1),
			applogger.Duration("delay_ms", delay),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) classify(op string, resp *resty.Response, err error, out *generateResponse) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return fetch.NewError(fetch.KindTimeout, op, err)
		}
		return fetch.NewError(fetch.KindTransient, op, err)
	}

	code := resp.StatusCode()
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return fetch.NewError(fetch.KindRateLimited, op, apiError(out, code))
	case code == http.StatusBadRequest || code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fetch.NewError(fetch.KindFatal, op, apiError(out, code))
	case code >= 500:
		return fetch.NewError(fetch.KindTransient, op, apiError(out, code))
	default:
		return fetch.NewError(fetch.KindFatal, op, apiError(out, code))
	}
}

func apiError(out *generateResponse, code int) error {
	if out != nil && out.Error != nil && out.Error.Message != "" {
		return fmt.Errorf("status %d: %s", code, out.Error.Message)
	}
	return fmt.Errorf("status %d", code)
}

func decodeTurn(out *generateResponse) *models.ModelTurn {
	turn := &models.ModelTurn{}
	if len(out.Candidates) == 0 {
		return turn
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			turn.Calls = append(turn.Calls, *part.FunctionCall)
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	turn.Text = text.String()
	return turn
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
