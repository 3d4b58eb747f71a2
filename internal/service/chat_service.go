package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nextdocs/docsgpt/internal/config"
	"github.com/nextdocs/docsgpt/internal/domain"
)

// Embedder turns text into a fixed-dimensional vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearcher runs the token-budgeted similarity search over the
// documentation corpus.
type ChunkSearcher interface {
	Search(ctx context.Context, embedding []float32, tokenBudget int) ([]domain.DocumentChunk, error)
}

// CompletionClient starts a streaming chat completion.
type CompletionClient interface {
	StreamCompletion(ctx context.Context, messages []domain.ChatMessage) CompletionStream
}

// CompletionStream is a single-consumer, non-restartable sequence of
// text fragments. Next blocks for the next fragment and returns false
// on exhaustion or failure; Err distinguishes the two. Close releases
// the upstream connection.
type CompletionStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// ChatService runs the retrieval-augmented completion pipeline:
// rate-check, embed, retrieve, compose, stream.
type ChatService struct {
	limiter     *UsageLimiter
	embedder    Embedder
	documents   ChunkSearcher
	completions CompletionClient
	composer    PromptComposer
	cfg         config.ChatConfig
	logger      *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	limiter *UsageLimiter,
	embedder Embedder,
	documents ChunkSearcher,
	completions CompletionClient,
	cfg config.ChatConfig,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		limiter:     limiter,
		embedder:    embedder,
		documents:   documents,
		completions: completions,
		cfg:         cfg,
		logger:      logger,
	}
}

// Chat runs the pipeline for one request and returns a channel of
// markdown fragments. Everything that can fail does so before the
// channel is returned, so the caller commits to a streaming response
// only once the upstream has produced its first event. After that the
// stream ends via upstream exhaustion (followed by the citations
// footer) or ctx cancellation.
func (s *ChatService) Chat(ctx context.Context, clientID string, conversation []domain.ChatMessage) (<-chan string, error) {
	if len(conversation) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	if err := s.limiter.CheckAndRecord(ctx, clientID); err != nil {
		return nil, err
	}

	// Only the latest user message is embedded, not the whole
	// conversation.
	question := conversation[len(conversation)-1].Content

	embedCtx, cancelEmbed := context.WithTimeout(ctx, s.cfg.StepTimeout)
	defer cancelEmbed()
	embedding, err := s.embedder.Embed(embedCtx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}

	searchCtx, cancelSearch := context.WithTimeout(ctx, s.cfg.StepTimeout)
	defer cancelSearch()
	chunks, err := s.documents.Search(searchCtx, embedding, s.cfg.TokenBudget)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}

	messages := s.composer.Compose(conversation, chunks)

	streamCtx, cancelStream := context.WithTimeout(ctx, s.cfg.StreamTimeout)
	stream := s.completions.StreamCompletion(streamCtx, messages)

	// Pull the first fragment before handing the stream to the caller
	// so an upstream failure surfaces as a clean error instead of an
	// empty or half-formed body.
	pending := stream.Next()
	if !pending {
		if err := stream.Err(); err != nil {
			_ = stream.Close()
			cancelStream()
			return nil, fmt.Errorf("%w: %w", domain.ErrCompletion, err)
		}
		// The upstream finished without producing anything; the
		// response is just the citations footer.
	}

	s.logger.Debug("streaming completion",
		zap.String("client", clientID),
		zap.Int("context_chunks", len(chunks)),
		zap.Int("prompt_messages", len(messages)),
	)

	out := make(chan string)
	go s.relay(streamCtx, cancelStream, stream, chunks, out, pending)
	return out, nil
}

// relay forwards upstream fragments to out in order and unchanged,
// then appends the citations footer once the upstream is exhausted.
// It returns promptly when ctx is cancelled so the upstream read does
// not outlive the client connection. A failure after fragments have
// been forwarded closes the stream without the footer; the bytes
// already sent stand.
func (s *ChatService) relay(
	ctx context.Context,
	cancel context.CancelFunc,
	stream CompletionStream,
	chunks []domain.DocumentChunk,
	out chan<- string,
	pending bool,
) {
	defer close(out)
	defer cancel()
	defer func() {
		if err := stream.Close(); err != nil {
			s.logger.Warn("failed to close completion stream", zap.Error(err))
		}
	}()

	for pending {
		select {
		case out <- stream.Current():
		case <-ctx.Done():
			return
		}
		pending = stream.Next()
	}

	if err := stream.Err(); err != nil {
		s.logger.Warn("completion stream ended early", zap.Error(err))
		return
	}

	select {
	case out <- SourcesFooter(chunks):
	case <-ctx.Done():
	}
}
