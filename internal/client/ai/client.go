// Package ai generates vocabulary content through an OpenAI-compatible chat
// completion endpoint.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// ErrNoContent means the endpoint answered but nothing usable came back.
var ErrNoContent = errors.New("ai: no content")

const DefaultModel = "gpt-4o-mini"

// CredentialSource yields the API key for each request.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

type Config struct {
	BaseURL string
	Model   string
}

type Client struct {
	cfg    Config
	creds  CredentialSource
	logger logging.Logger
}

func NewClient(cfg Config, creds CredentialSource, logger logging.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{cfg: cfg, creds: creds, logger: logger.With("component", "ai")}
}

// WordContent is the generated material for a new word.
type WordContent struct {
	Translation string `json:"translation"`
	Example     string `json:"example"`
	ExampleCn   string `json:"exampleCn"`
	Category    string `json:"category"`
	Etymology   string `json:"etymology"`
}

// DetectedWord is WordContent plus the detected language.
type DetectedWord struct {
	WordContent
	Language string `json:"language"`
}

type ExampleContent struct {
	Example   string `json:"example"`
	ExampleCn string `json:"exampleCn"`
}

func (c *Client) GenerateWord(ctx context.Context, word, language string) (WordContent, error) {
	raw, err := c.complete(ctx, wordPrompt, fmt.Sprintf("Word: %s\nLanguage: %s", word, language))
	if err != nil {
		return WordContent{}, err
	}
	return decodeStrict(raw, func(w WordContent) bool {
		return w.Translation != "" && w.Example != ""
	})
}

func (c *Client) DetectAndGenerate(ctx context.Context, word string) (DetectedWord, error) {
	raw, err := c.complete(ctx, detectPrompt, "Word: "+word)
	if err != nil {
		return DetectedWord{}, err
	}
	return decodeStrict(raw, func(w DetectedWord) bool {
		return w.Language != "" && w.Translation != "" && w.Example != ""
	})
}

func (c *Client) RegenerateExample(ctx context.Context, word, language string) (ExampleContent, error) {
	raw, err := c.complete(ctx, examplePrompt, fmt.Sprintf("Word: %s\nLanguage: %s", word, language))
	if err != nil {
		return ExampleContent{}, err
	}
	return decodeStrict(raw, func(e ExampleContent) bool { return e.Example != "" })
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return "", err
	}

	conf := openai.DefaultConfig(key)
	if c.cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimSuffix(c.cfg.BaseURL, "/")
	}
	api := openai.NewClientWithConfig(conf)

	resp, err := api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("ai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoContent
	}
	content := resp.Choices[0].Message.Content
	c.logger.Debug(ctx, "completion received", "model", c.cfg.Model, "bytes", len(content))
	return content, nil
}
