package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/overruled-app/overruled/src/webclient"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

type openAIClient struct {
	apiKey     string
	httpClient *http.Client
	defaults   Options
}

func newOpenAIClient(cfg FactoryConfig) (*openAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}
	return &openAIClient{
		apiKey:     cfg.OpenAIKey,
		httpClient: webclient.NewDefault(60 * time.Second),
		defaults: Options{
			Model:               valueOrDefault(cfg.Model, "gpt-4o-mini"),
			Temperature:         orFloat(cfg.Temperature, 0.8),
			MaxCompletionTokens: orInt(cfg.MaxCompletionTokens, defaultMaxTokens),
			SystemPrompt:        cfg.SystemPrompt,
		},
	}, nil
}

func (c *openAIClient) Respond(ctx context.Context, input string, opts Options) (string, error) {
	merged := mergeOptions(c.defaults, opts)
	messages := []map[string]string{}
	if merged.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": merged.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": input})

	reqBody := map[string]interface{}{
		"model":       merged.Model,
		"messages":    messages,
		"temperature": merged.Temperature,
		"max_tokens":  orInt(merged.MaxCompletionTokens, defaultMaxTokens),
	}
	b, _ := json.Marshal(reqBody)

	_, body, err := webclient.DoWithRetry(ctx, 3, 2*time.Second, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewBuffer(b))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		rb, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, rb, fmt.Errorf("status %d", resp.StatusCode)
		}
		return resp.StatusCode, rb, nil
	})
	if err != nil {
		return "", fmt.Errorf("openAI API error: %w", err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return result.Choices[0].Message.Content, nil
}
