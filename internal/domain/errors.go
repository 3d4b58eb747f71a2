package domain

import "errors"

var (
	// ErrInvalidRequest indicates a malformed conversation
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTooManyRequests indicates the client exceeded the rate window
	ErrTooManyRequests = errors.New("too many requests")
	// ErrEmbedding indicates the embedding service failed
	ErrEmbedding = errors.New("embedding failed")
	// ErrRetrieval indicates the vector store query failed
	ErrRetrieval = errors.New("retrieval failed")
	// ErrCompletion indicates the completion service failed before streaming began
	ErrCompletion = errors.New("completion failed")
)
