package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/llm"
)

// Extract implements extract.StructuredExtractor over chat/completions in
// JSON mode. It returns the raw message content; parsing and validation are
// left to llm.ParseResponse so the caller keeps the raw text for diagnostics.
func (c *Client) Extract(ctx context.Context, lines []string) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"lines", len(lines),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(lines)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return string(raw), fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "req_id", rid, "raw", string(raw))
		return string(raw), fmt.Errorf("no choices in openai response")
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"provider", "openai",
		"content_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
