package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/campuslostfound/lostfound/internal/model"
)

const chatPath = "/v1/chat/completions"

// ChatConfig configures the chat-completions oracle.
type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// ChatOracle asks an OpenAI-compatible chat-completions endpoint to score a pair.
type ChatOracle struct {
	client *resty.Client
	model  string
	temp   float64
}

// NewChatOracle builds the oracle. Timeout bounds each HTTP round trip; callers still
// pass a per-assessment context deadline.
func NewChatOracle(cfg ChatConfig) *ChatOracle {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey)
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return &ChatOracle{client: c, model: cfg.Model, temp: cfg.Temperature}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Assess implements Oracle.
func (o *ChatOracle) Assess(ctx context.Context, lost, found *model.Report) (Verdict, error) {
	req := chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: BuildPrompt(lost, found)}},
		Temperature: o.temp,
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(&req).
		Post(chatPath)
	if err != nil {
		return Verdict{}, fmt.Errorf("oracle request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Verdict{}, fmt.Errorf("oracle status %d: %s", resp.StatusCode(), truncate(resp.String(), 256))
	}
	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return Verdict{}, fmt.Errorf("%w: decode response: %v", ErrNoOpinion, err)
	}
	if len(out.Choices) == 0 {
		return Verdict{}, fmt.Errorf("%w: empty choices", ErrNoOpinion)
	}
	return ParseVerdict(out.Choices[0].Message.Content)
}

// HealthPing checks the gateway is reachable. Any response below 500 counts as up,
// since listing models may be unsupported or unauthorised on some gateways.
func (o *ChatOracle) HealthPing(ctx context.Context) error {
	resp, err := o.client.R().SetContext(ctx).Get("/v1/models")
	if err != nil {
		return fmt.Errorf("oracle ping: %w", err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("oracle ping status %d", resp.StatusCode())
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
