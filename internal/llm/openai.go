// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// OpenAIConfig configures OpenAIClient. BaseURL points at any
// OpenAI-chat-completions-compatible endpoint.
type OpenAIConfig struct {
	BaseURL            string
	APIKey             string
	Model              string
	Temperature        float64
	Timeout            time.Duration
	RateLimitPerSecond float64
}

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint in
// JSON-object response mode, the same contract the ancestor's
// AsyncOpenAI(response_format={"type":"json_object"}) calls used. A gobreaker
// circuit breaker and a token-bucket rate limiter guard it.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[CompletionResult]
}

// NewOpenAIClient builds an OpenAIClient. If cfg.APIKey is empty, Complete
// always fails with ErrUnavailable rather than sending unauthenticated
// requests.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 5
	}

	breaker := gobreaker.NewCircuitBreaker[CompletionResult](gobreaker.Settings{
		Name:        "llm-openai",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		breaker:    breaker,
	}
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	Messages       []wireMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Client by issuing a single non-streaming chat
// completion request, rate-limited and circuit-broken.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if c.cfg.APIKey == "" {
		return CompletionResult{}, ErrUnavailable
	}
	if !c.limiter.Allow() {
		return CompletionResult{}, ErrUnavailable
	}

	result, err := c.breaker.Execute(func() (CompletionResult, error) {
		return c.doComplete(ctx, req)
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, nil
}

func (c *OpenAIClient) doComplete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	messages := make([]wireMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = wireMessage{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:          c.cfg.Model,
		Temperature:    c.cfg.Temperature,
		Messages:       messages,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return CompletionResult{}, fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return CompletionResult{}, fmt.Errorf("llm: status %d: %s", resp.StatusCode, data)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return CompletionResult{}, fmt.Errorf("llm: unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return CompletionResult{}, fmt.Errorf("llm: empty response")
	}
	return CompletionResult{Text: parsed.Choices[0].Message.Content}, nil
}
