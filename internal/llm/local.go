// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm implements two client tiers: a single-prompt local/bulk
// summarizer and a long-context remote/deliberative planner client,
// both wrapped in the shared retry capability wrapper.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/haldorsen/archivist/internal/config"
	"github.com/haldorsen/archivist/internal/pipelineerr"
	"github.com/haldorsen/archivist/internal/retry"
)

// LocalClient performs single-prompt summarization against an
// Ollama-compatible local endpoint. Thread-safe: http.Client and the
// retry wrapper carry no mutable per-call state.
type LocalClient struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
	retryPolicy retry.Policy
}

// NewLocalClient builds a client against cfg's local LLM endpoint.
func NewLocalClient(cfg config.LLMEndpointConfig, logger *slog.Logger) *LocalClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.Endpoint,
		logger:     logger,
		retryPolicy: retry.Policy{
			MaxAttempts:   cfg.MaxRetries,
			Base:          250 * time.Millisecond,
			Cap:           10 * time.Second,
			ClassifyError: pipelineerr.Classify,
		},
	}
}

// SummarizeOptions carries the optional per-call summarization knobs.
type SummarizeOptions struct {
	Temperature   float64 // default low, 0.0-0.3
	ContextBudget int
	Model         string
}

type ollamaGenerateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumCtx      int     `json:"num_ctx,omitempty"`
	} `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Summarize performs one summarization request, retrying transient
// failures (connection error, rate-limit signal, 5xx) up to the
// configured max attempts with exponential backoff.
func (c *LocalClient) Summarize(ctx context.Context, prompt string, opts SummarizeOptions) (string, error) {
	var result string
	err := retry.Do(ctx, c.logger, c.retryPolicy, "llm.local.summarize", func(ctx context.Context) error {
		text, err := c.doGenerate(ctx, prompt, opts)
		if err != nil {
			return err
		}
		result = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func (c *LocalClient) doGenerate(ctx context.Context, prompt string, opts SummarizeOptions) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  opts.Model,
		Prompt: prompt,
		Stream: false,
	}
	reqBody.Options.Temperature = opts.Temperature
	reqBody.Options.NumCtx = opts.ContextBudget

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", pipelineerr.New(pipelineerr.KindFatal, "llm.local.marshal", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", pipelineerr.New(pipelineerr.KindFatal, "llm.local.new_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pipelineerr.New(pipelineerr.KindNetwork, "llm.local.do", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", pipelineerr.New(pipelineerr.KindRateLimit, "llm.local.status", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return "", pipelineerr.New(pipelineerr.KindNetwork, "llm.local.status", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return "", pipelineerr.New(pipelineerr.KindUnavailable, "llm.local.status", fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pipelineerr.New(pipelineerr.KindNetwork, "llm.local.read_body", err)
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", pipelineerr.New(pipelineerr.KindMalformed, "llm.local.decode", err)
	}
	return out.Response, nil
}
