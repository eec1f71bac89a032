package retrieval

import (
	"strings"
	"testing"

	contractx "github.com/ktios/frontdesk/agent/contract"
)

func TestContextBlockEmpty(t *testing.T) {
	t.Parallel()

	if got := ContextBlock(nil); got != NoKnowledgeMarker {
		t.Fatalf("ContextBlock(nil) = %q", got)
	}
	if got := ContextBlock([]contractx.Snippet{}); got != NoKnowledgeMarker {
		t.Fatalf("ContextBlock(empty) = %q", got)
	}
}

func TestContextBlockNumbersChunks(t *testing.T) {
	t.Parallel()

	got := ContextBlock([]contractx.Snippet{
		{Content: "Ouvert du mardi au dimanche."},
		{Content: "Terrasse chauffée en hiver."},
	})
	want := "[1] Ouvert du mardi au dimanche.\n[2] Terrasse chauffée en hiver."
	if got != want {
		t.Fatalf("ContextBlock = %q, want %q", got, want)
	}
}

func TestContextBlockCapsAtFive(t *testing.T) {
	t.Parallel()

	snips := make([]contractx.Snippet, 8)
	for i := range snips {
		snips[i] = contractx.Snippet{Content: "chunk"}
	}
	got := ContextBlock(snips)
	if n := strings.Count(got, "\n") + 1; n != MaxContextChunks {
		t.Fatalf("rendered %d lines, want %d", n, MaxContextChunks)
	}
	if strings.Contains(got, "[6]") {
		t.Fatal("chunks past the cap leaked into the context")
	}
}

func TestVectorLiteral(t *testing.T) {
	t.Parallel()

	got := vectorLiteral([]float64{0.5, -1, 0.25})
	if got != "[0.5,-1,0.25]" {
		t.Fatalf("vectorLiteral = %q", got)
	}
	if got := vectorLiteral(nil); got != "[]" {
		t.Fatalf("vectorLiteral(nil) = %q", got)
	}
}
