package matcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// GatewayClient is the hosted model behind the matching proxy. The portal
// never interprets the completion beyond pulling a JSON object out of it.
type GatewayClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type GatewayConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type restyGateway struct {
	client *resty.Client
	url    string
	model  string
}

func NewGatewayClient(cfg GatewayConfig) GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey)

	return &restyGateway{
		client: client,
		url:    cfg.URL,
		model:  cfg.Model,
	}
}

func (g *restyGateway) Complete(ctx context.Context, prompt string) (string, error) {
	var response chatResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       g.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: 0.2,
		}).
		SetResult(&response).
		Post(g.url)
	if err != nil {
		return "", fmt.Errorf("model gateway request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("model gateway returned status %d", resp.StatusCode())
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("model gateway returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}
