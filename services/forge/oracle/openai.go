// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIAnalyzer implements Analyzer against an OpenAI-compatible endpoint.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIAnalyzer builds an analyzer from OPENAI_API_KEY / OPENAI_MODEL,
// falling back to the secrets file when the env var is absent.
func NewOpenAIAnalyzer(logger *slog.Logger) (*OpenAIAnalyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		data, err := os.ReadFile(secretPath)
		if err != nil {
			return nil, fmt.Errorf("OPENAI_API_KEY not set and secret not found at %s", secretPath)
		}
		apiKey = strings.TrimSpace(string(data))
		logger.Info("read the OpenAI API key from secrets", "path", secretPath)
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
		logger.Warn("OPENAI_MODEL not set, defaulting", "model", model)
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}, nil
}

// Analyze implements Analyzer.
func (o *OpenAIAnalyzer) Analyze(ctx context.Context, content string, kind AnalysisType) (*Analysis, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrUnsupported)
	}
	prompt, err := buildAnalysisPrompt(content, kind)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("oracle analyze call", "model", o.model, "type", kind, "content_bytes", len(content))

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, mapTransportError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("oracle returned no choices")
	}

	var out Analysis
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}
	return &out, nil
}

// Compress implements Analyzer. The model is asked to rewrite the payload
// within the byte budget; a response that still exceeds the budget is
// truncated rather than returned oversize.
func (o *OpenAIAnalyzer) Compress(ctx context.Context, payload []byte, budget uint) ([]byte, error) {
	if uint(len(payload)) <= budget {
		return payload, nil
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: compressSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildCompressPrompt(payload, budget)},
		},
	})
	if err != nil {
		return nil, mapTransportError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("oracle returned no choices")
	}

	out := []byte(resp.Choices[0].Message.Content)
	if uint(len(out)) > budget {
		o.logger.Warn("oracle compression exceeded budget, truncating",
			"got", len(out), "budget", budget)
		out = out[:budget]
	}
	return out, nil
}

func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
