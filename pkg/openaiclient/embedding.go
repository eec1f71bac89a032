package openaiclient

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/ktios/frontdesk/agent/contract"
)

// EmbeddingAdapter exposes the embeddings endpoint through the embedder
// contract.
type EmbeddingAdapter struct {
	client *openaisdk.Client
	model  string
}

var _ contractx.Embedder = (*EmbeddingAdapter)(nil)

func NewEmbeddingAdapter(client *openaisdk.Client, cfg Config) (*EmbeddingAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("openaiclient: client is required")
	}
	return &EmbeddingAdapter{client: client, model: cfg.EmbeddingModel}, nil
}

func (a *EmbeddingAdapter) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := a.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(a.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
