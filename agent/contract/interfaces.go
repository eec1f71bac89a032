package contract

import "context"

// ChatModel is one chat completion round-trip with automatic tool selection.
type ChatModel interface {
	Complete(ctx context.Context, transcript []Message, tools []ToolDefinition) (ModelResponse, error)
}

// Embedder computes embedding vectors for a batch of texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Retriever returns ranked knowledge snippets for a tenant-scoped query,
// best-relevance first, at most topK. Empty query yields an empty result.
type Retriever interface {
	Search(ctx context.Context, tenantID, query string, topK int) ([]Snippet, error)
}

// ToolExecutor dispatches one named tool call with already-decoded arguments.
// Domain failures and validation rejections come back inside the result
// payload; the error return is reserved for context cancellation and broken
// invariants, never for a failed tool.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}
