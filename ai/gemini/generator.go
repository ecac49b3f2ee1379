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


// Package gemini provides a guide generator backed by the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/studyguide/ai"
	"google.golang.org/api/option"
)

// Generator implements ai.Generator using the Gemini API.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini client for the configured model.
// The returned generator must be closed to release the client connection.
func NewGenerator(ctx context.Context, config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderGemini {
		return nil, errors.New("gemini: config provider must be " + ai.ProviderGemini)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:      client,
		model:       config.Model,
		temperature: float32(config.Temperature),
		logger:      slog.Default().With("component", "gemini-generator"),
	}, nil
}

// GenerateGuide writes the guide section for one chunk.
func (g *Generator) GenerateGuide(ctx context.Context, chunk, subject string) (string, error) {
	if strings.TrimSpace(chunk) == "" {
		return "", ai.ErrEmptyChunk
	}

	// One model per call; SystemInstruction depends on the subject.
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ai.GuideSystemPrompt(subject))},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(ai.GuideUserPrompt(chunk)))
	if err != nil {
		g.logger.Error("failed to generate content", "subject", subject, "err", err)
		return "", err
	}

	return textFromResponse(resp)
}

// Close releases the underlying client.
func (g *Generator) Close() error {
	return g.client.Close()
}

// textFromResponse concatenates the text parts of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ai.ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ai.ErrEmptyResponse
	}
	return out, nil
}
