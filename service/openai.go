package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/netiramawat02/DNE-OPUS-POC/config"
)

// OpenAIClient talks to an OpenAI-compatible API and implements both
// Embedder and ChatModel.
type OpenAIClient struct {
	baseURL        string
	apiKey         string
	chatModel      string
	embeddingModel string
	client         *http.Client
	maxRetries     int
}

// NewOpenAIClient creates a client from configuration. The API key is read
// from the configured environment variable.
func NewOpenAIClient(cfg *config.OpenAIConfig) (*OpenAIClient, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		baseURL:        cfg.BaseURL,
		apiKey:         key,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		client:         &http.Client{Timeout: timeout},
		maxRetries:     cfg.MaxRetries,
	}, nil
}

// Embed returns an embedding vector for the given text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	body := map[string]any{
		"input": text,
		"model": c.embeddingModel,
	}

	payload, err := c.postWithRetry(ctx, c.baseURL+"/embeddings", body)
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return out.Data[0].Embedding, nil
}

// Complete sends a two-turn chat prompt and returns the normalized reply
// text from choices[0].message.content.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body := map[string]any{
		"model":       c.chatModel,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}

	payload, err := c.postWithRetry(ctx, c.baseURL+"/chat/completions", body)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return out.Choices[0].Message.Content, nil
}

// postWithRetry POSTs JSON and retries transient failures (network errors,
// 429, 5xx) with exponential backoff, respecting Retry-After when present.
func (c *OpenAIClient) postWithRetry(ctx context.Context, url string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("%s: %s", url, resp.Status)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					select {
					case <-time.After(time.Duration(secs) * time.Second):
					case <-ctx.Done():
						resp.Body.Close()
						return nil, ctx.Err()
					}
				}
			}
			resp.Body.Close()
			continue
		}

		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%s: %s: %s", url, resp.Status, truncateBody(payload))
		}
		return payload, nil
	}
	return nil, lastErr
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func truncateBody(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
