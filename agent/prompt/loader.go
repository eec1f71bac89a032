package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/system.txt
var systemRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System: strings.TrimSpace(systemRaw),
	}
}

// KnowledgeMessage wraps a rendered retrieval block as the system message the
// model receives right after the main prompt.
func KnowledgeMessage(contextBlock string) string {
	return "BASE DE CONNAISSANCE:\n" + contextBlock
}
