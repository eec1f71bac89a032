package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	contractx "github.com/ktios/frontdesk/agent/contract"
)

// NoKnowledgeMarker is injected into the prompt when retrieval yields
// nothing, so the model states it has no venue information instead of
// inventing some.
const NoKnowledgeMarker = "Aucune information dans la base de connaissance."

// MaxContextChunks caps how many snippets make it into the prompt.
const MaxContextChunks = 5

type Config struct {
	TopK int `envconfig:"TOP_K" split_words:"true" default:"5"`
}

// PgVector searches kb_chunks by cosine distance over pgvector embeddings.
// When the embedding call fails it degrades to a keyword scan so a flaky
// embedding backend never takes retrieval down entirely.
type PgVector struct {
	db  bun.IDB
	emb contractx.Embedder
}

var _ contractx.Retriever = (*PgVector)(nil)

func NewPgVector(db bun.IDB, emb contractx.Embedder) *PgVector {
	return &PgVector{db: db, emb: emb}
}

type chunkRow struct {
	Content  string  `bun:"content"`
	Distance float64 `bun:"distance"`
}

func (p *PgVector) Search(ctx context.Context, tenantID, query string, topK int) ([]contractx.Snippet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if topK < 1 {
		topK = MaxContextChunks
	}

	vecs, err := p.emb.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("embedding failed, falling back to keyword search")
		return p.keywordSearch(ctx, tenantID, query, topK)
	}

	lit := vectorLiteral(vecs[0])
	var rows []chunkRow
	err = p.db.NewRaw(
		`SELECT c.content, (c.embedding <=> ?::vector) AS distance
		 FROM kb_chunks c
		 WHERE c.tenant_id = ?
		 ORDER BY c.embedding <=> ?::vector
		 LIMIT ?`,
		lit, tenantID, lit, topK,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("kb search: %w", err)
	}

	out := make([]contractx.Snippet, 0, len(rows))
	for _, r := range rows {
		out = append(out, contractx.Snippet{Content: r.Content, Score: 1 - r.Distance})
	}
	return out, nil
}

func (p *PgVector) keywordSearch(ctx context.Context, tenantID, query string, topK int) ([]contractx.Snippet, error) {
	var rows []chunkRow
	err := p.db.NewRaw(
		`SELECT c.content, 1.0 AS distance
		 FROM kb_chunks c
		 WHERE c.tenant_id = ? AND c.content ILIKE ?
		 LIMIT ?`,
		tenantID, "%"+query+"%", topK,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("kb keyword search: %w", err)
	}

	out := make([]contractx.Snippet, 0, len(rows))
	for _, r := range rows {
		out = append(out, contractx.Snippet{Content: r.Content})
	}
	return out, nil
}

// vectorLiteral serializes an embedding to the pgvector text format.
func vectorLiteral(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// ContextBlock renders retrieved snippets as the numbered block fed to the
// model, or the no-knowledge marker when nothing was retrieved.
func ContextBlock(snippets []contractx.Snippet) string {
	if len(snippets) == 0 {
		return NoKnowledgeMarker
	}
	if len(snippets) > MaxContextChunks {
		snippets = snippets[:MaxContextChunks]
	}
	lines := make([]string, 0, len(snippets))
	for i, s := range snippets {
		lines = append(lines, fmt.Sprintf("[%d] %s", i+1, s.Content))
	}
	return strings.Join(lines, "\n")
}
