// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haldorsen/archivist/internal/config"
	"github.com/haldorsen/archivist/internal/pipelineerr"
	"github.com/haldorsen/archivist/internal/retry"
)

// RemoteClient performs long-context, JSON-producing deliberative calls
// against the remote reasoning model. Used by the Organization Planner
// for plan generation; the Duplicate/Version Resolvers use LocalClient.
type RemoteClient struct {
	sdk         anthropic.Client
	model       string
	maxTokens   int
	logger      *slog.Logger
	retryPolicy retry.Policy
}

// NewRemoteClient builds a client against cfg's remote LLM endpoint.
func NewRemoteClient(cfg config.LLMEndpointConfig, logger *slog.Logger) *RemoteClient {
	if logger == nil {
		logger = slog.Default()
	}
	sdk := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.Endpoint),
		option.WithRequestTimeout(cfg.Timeout),
	)
	return &RemoteClient{
		sdk:       sdk,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
		retryPolicy: retry.Policy{
			MaxAttempts:   cfg.MaxRetries,
			Base:          time.Second,
			Cap:           time.Minute,
			ClassifyError: pipelineerr.Classify,
		},
	}
}

// Deliberate performs a single long-context call with the given system
// prompt and returns the raw text response, retrying transient failures
// per the shared capability wrapper.
func (c *RemoteClient) Deliberate(ctx context.Context, systemPrompt, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	var result string
	err := retry.Do(ctx, c.logger, c.retryPolicy, "llm.remote.deliberate", func(ctx context.Context) error {
		msg, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: int64(maxTokens),
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return classifyAnthropicError(err)
		}
		result = concatTextBlocks(msg)
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// DeliberateJSON performs Deliberate and parses the response through the
// shared lenient JSON extraction chain, surfacing KindMalformed when all
// three strategies fail.
func (c *RemoteClient) DeliberateJSON(ctx context.Context, systemPrompt, prompt string, maxTokens int, out any) error {
	text, err := c.Deliberate(ctx, systemPrompt, prompt, maxTokens)
	if err != nil {
		return err
	}
	return ExtractJSON(text, out)
}

func concatTextBlocks(msg *anthropic.Message) string {
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out
}

// classifyAnthropicError maps SDK error shapes onto pipeline Kinds so the
// retry wrapper's classify_error can decide transience.
func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if asAnthropicError(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return pipelineerr.New(pipelineerr.KindRateLimit, "llm.remote.status", err)
		case apiErr.StatusCode >= 500:
			return pipelineerr.New(pipelineerr.KindNetwork, "llm.remote.status", err)
		}
	}
	return pipelineerr.New(pipelineerr.KindNetwork, "llm.remote.call", err)
}

func asAnthropicError(err error, target **anthropic.Error) bool {
	ae, ok := err.(*anthropic.Error)
	if ok {
		*target = ae
	}
	return ok
}
