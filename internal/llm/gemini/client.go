// Package gemini implements the structured-extraction collaborator on top of
// Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/llm"
)

type Config struct {
	APIKey      string
	Model       string // default gemini-1.5-flash
	Temperature float32
}

type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(llm.BuildSystemPrompt())}}

	return &Client{client: client, model: model, name: cfg.Model, logger: logger}, nil
}

// Extract returns the raw text of the first candidate.
func (g *Client) Extract(ctx context.Context, lines []string) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	g.logger.Info("llm.extract.start", "req_id", rid, "provider", "gemini", "model", g.name, "lines", len(lines))

	resp, err := g.model.GenerateContent(ctx, genai.Text(llm.BuildUserPrompt(lines)))
	if err != nil {
		g.logger.Error("llm.extract.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	content := strings.TrimSpace(b.String())
	g.logger.Info("llm.extract.ok",
		"req_id", rid,
		"provider", "gemini",
		"content_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func (g *Client) Close() error {
	return g.client.Close()
}
