// Package summarize produces natural-language trajectory summaries of
// episodes via Claude Haiku.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/norm/odyssey-ingest/internal/episode"
)

// ModelHaiku3 is the Claude Haiku 3 model ID.
const ModelHaiku3 = "claude-3-haiku-20240307"

const systemPrompt = "You summarize recorded mobile GUI interaction traces. " +
	"Given a task instruction and the ordered raw actions, describe in 2-3 " +
	"sentences what the user did and whether the task appears completed."

// Config holds summarizer client configuration.
type Config struct {
	// Model to use (defaults to Haiku 3)
	Model string

	// Max tokens for output
	MaxTokens int

	// Retry settings
	MaxRetries     int
	RetryBaseDelay time.Duration

	// API key (if empty, uses ANTHROPIC_API_KEY env)
	APIKey string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:          ModelHaiku3,
		MaxTokens:      300,
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
	}
}

// Client wraps the Anthropic SDK for trajectory summarization.
type Client struct {
	cfg    *Config
	client anthropic.Client
}

// New creates a new summarizer client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("summarize: no API key: set ANTHROPIC_API_KEY")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Client{
		cfg:    cfg,
		client: client,
	}, nil
}

// SummarizeEpisode renders the episode into a prompt and returns the model's
// trajectory summary. Includes retry logic with exponential backoff.
func (c *Client) SummarizeEpisode(ctx context.Context, doc *episode.Document) (string, error) {
	prompt := BuildPrompt(doc)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.doRequest(ctx, prompt)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("summarize: max retries exceeded: %w", lastErr)
}

// BuildPrompt renders an episode's instruction and raw action sequence into
// the user prompt.
func BuildPrompt(doc *episode.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", doc.TaskInfo.Task)
	fmt.Fprintf(&b, "Instruction: %s\n", doc.TaskInfo.Instruction)
	if len(doc.TaskInfo.Apps) > 0 {
		fmt.Fprintf(&b, "Apps: %s\n", strings.Join(doc.TaskInfo.Apps, ", "))
	}
	b.WriteString("Actions:\n")
	for _, step := range doc.Steps {
		if len(step.Info) > 0 {
			fmt.Fprintf(&b, "%d. %s %s\n", step.Step, step.Action, string(step.Info))
		} else {
			fmt.Fprintf(&b, "%d. %s\n", step.Step, step.Action)
		}
	}
	return b.String()
}

func (c *Client) doRequest(ctx context.Context, userContent string) (string, error) {
	model := c.cfg.Model
	if model == "" {
		model = ModelHaiku3
	}

	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userContent)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize request: %w", err)
	}

	var result strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	return result.String(), nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "overloaded", "rate limit", "timeout", "temporarily", "502", "503", "529"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
