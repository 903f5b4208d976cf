package ai

import (
	"context"

	"manualhub/internal/config"
)

// Client binds the OpenAI-compatible transport to the configured chat and
// embedding models. One instance is constructed at bootstrap and shared by
// every component that needs the models.
type Client struct {
	transport *OpenAICompatibleClient
	chat      ChatConfig
	embedding EmbeddingConfig
}

func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		transport: NewOpenAICompatibleClient(),
		chat: ChatConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		},
		embedding: EmbeddingConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.EmbeddingModel,
		},
	}
}

func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return c.transport.Complete(ctx, c.chat, messages)
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.transport.Embed(ctx, c.embedding, text)
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.transport.EmbedBatch(ctx, c.embedding, texts)
}
