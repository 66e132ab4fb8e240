// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/stancewatch/ai"
	"github.com/poiesic/stancewatch/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// StanceExtractor implements ai.StanceExtractor using OpenAI-compatible chat
// APIs in JSON mode.
type StanceExtractor struct {
	client      llms.Model
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// newStanceExtractor is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newStanceExtractor(config *ai.Config) (*StanceExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken("none"),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &StanceExtractor{
		client:      client,
		temperature: config.Temperature,
		timeout:     config.GenerateTimeout,
		logger:      slog.Default().With("component", "ollama-extractor"),
	}, nil
}

// NewStanceExtractor creates a new stance extractor using the provided
// configuration.
//
// Returns ai.StanceExtractor interface to enforce abstraction.
func NewStanceExtractor(config *ai.Config) (ai.StanceExtractor, error) {
	return newStanceExtractor(config)
}

// ExtractStatement sends the assembled prompt to the generative service and
// returns the validated structured output together with the raw response
// text. There is exactly one attempt; the caller decides whether to resubmit.
//
// Failure classification, in priority order: non-success transport status,
// exceeded budget, unparseable output (raw text logged and preserved in the
// returned *core.ParseError), schema-invalid output (*core.SchemaError).
func (e *StanceExtractor) ExtractStatement(ctx context.Context, prompt string) (*ai.Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	response, err := e.client.GenerateContent(ctx, content,
		llms.WithTemperature(e.temperature), llms.WithJSONMode())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.logger.Error("generation timed out", "timeout", e.timeout)
			return nil, fmt.Errorf("%w: generate exceeded %s", core.ErrUpstreamTimeout, e.timeout)
		}
		e.logger.Error("generation failed", "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}

	if len(response.Choices) < 1 {
		e.logger.Error("generation returned no choices")
		return nil, fmt.Errorf("%w: generation returned no choices", core.ErrTransport)
	}

	raw := stripCodeFences(response.Choices[0].Content)

	output, err := decodeStatementOutput(raw)
	if err != nil {
		var parseErr *core.ParseError
		if errors.As(err, &parseErr) {
			// The raw text is evidence of a misbehaving model, not a
			// programming error. Log it for operator diagnosis before
			// returning the typed failure.
			e.logger.Error("model returned invalid JSON", "raw_output", parseErr.Raw)
		}
		return nil, err
	}

	return &ai.Extraction{Output: output, Raw: raw}, nil
}

// stripCodeFences removes markdown code fences some models wrap around JSON.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// decodeStatementOutput parses and validates a raw model response.
// Returns *core.ParseError for malformed JSON and *core.SchemaError for
// well-formed but invalid output.
func decodeStatementOutput(raw string) (*core.StatementOutput, error) {
	var output core.StatementOutput
	if err := json.Unmarshal([]byte(raw), &output); err != nil {
		return nil, &core.ParseError{Raw: raw}
	}

	if err := core.ValidateStatementOutput(&output); err != nil {
		return nil, err
	}
	return &output, nil
}
