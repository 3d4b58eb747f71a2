package service

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"

	"github.com/nextdocs/docsgpt/internal/config"
	"github.com/nextdocs/docsgpt/internal/domain"
)

// OpenAIClient adapts the OpenAI API to the embedding and completion
// contracts used by the chat pipeline.
type OpenAIClient struct {
	client         openai.Client
	embeddingModel string
	chatModel      string
}

// NewOpenAIClient creates a new OpenAI client from configuration
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:         openai.NewClient(opts...),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
	}
}

// Embed returns the embedding vector for one text. The vector is
// passed to the store as a typed pgvector value, so no lossy string
// round-trip can disturb nearest-neighbor ordering.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, f := range raw {
		vec[i] = float32(f)
	}
	return vec, nil
}

// StreamCompletion starts a streaming chat completion. The returned
// stream surfaces connection failures from its first Next call; the
// caller decides whether any bytes have been committed downstream.
func (c *OpenAIClient) StreamCompletion(ctx context.Context, messages []domain.ChatMessage) CompletionStream {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.chatModel),
		Messages: toOpenAIMessages(messages),
	}
	return &openaiStream{stream: c.client.Chat.Completions.NewStreaming(ctx, params)}
}

func toOpenAIMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// openaiStream adapts the SSE chunk stream to a plain text-fragment
// stream, skipping keep-alive chunks that carry no content delta.
type openaiStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (s *openaiStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			s.current = delta
			return true
		}
	}
	return false
}

func (s *openaiStream) Current() string { return s.current }

func (s *openaiStream) Err() error { return s.stream.Err() }

func (s *openaiStream) Close() error { return s.stream.Close() }
