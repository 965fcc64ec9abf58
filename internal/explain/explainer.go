// Package explain turns analysis results into short plain-language
// explanations using a chat-completion backend.
package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// Explainer wraps a Runtime with model settings.
type Explainer struct {
	rt          Runtime
	model       string
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

// Settings are the generation knobs passed with every request.
type Settings struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// New returns an Explainer. A nil logger discards output.
func New(rt Runtime, s Settings, log *slog.Logger) *Explainer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Explainer{rt: rt, model: s.Model, maxTokens: s.MaxTokens, temperature: s.Temperature, log: log}
}

// Explain asks the backend to explain res. descriptions is optional.
func (e *Explainer) Explain(ctx context.Context, res *analysis.Result, descriptions map[string]string) (string, error) {
	if e.rt == nil {
		return "", errors.New("no ai runtime configured")
	}
	prompt, err := BuildPrompt(res, descriptions)
	if err != nil {
		return "", err
	}
	start := time.Now()
	resp, err := e.rt.Generate(ctx, GenerateRequest{
		Model: e.model,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("generate explanation: empty response")
	}
	e.log.Debug("explanation generated",
		"mode", res.Mode.String(),
		"model", e.model,
		"prompt_tokens_est", utils.CountTokens(prompt),
		"request_id", resp.RequestID,
		"elapsed", time.Since(start))
	return text, nil
}
