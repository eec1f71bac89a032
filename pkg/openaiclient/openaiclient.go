package openaiclient

import (
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Config struct {
	BaseURL        string  `envconfig:"BASE_URL" split_words:"true"`
	APIKey         string  `envconfig:"API_KEY" split_words:"true" required:"true"`
	ChatModel      string  `envconfig:"CHAT_MODEL" split_words:"true" default:"gpt-4o-mini"`
	EmbeddingModel string  `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"text-embedding-3-small"`
	Temperature    float64 `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
}

// NewClient creates an OpenAI SDK client. BaseURL is optional and allows
// pointing at any OpenAI-compatible gateway.
func NewClient(cfg Config) *openaisdk.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
