package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"techdoc-rag/internal/config"
)

const systemPrompt = "You are an assistant for technical maintenance documentation. " +
	"Answer the question using only the provided context. If the context does not " +
	"contain the answer, say so. Cite the source document names you relied on."

// Generator produces an answer for a query from a retrieved context block.
type Generator struct {
	cfg *config.LLMConfig
}

func NewGenerator(cfg *config.LLMConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate calls the configured OpenAI-compatible chat model with the context
// block and the user query.
func (g *Generator) Generate(ctx context.Context, contextBlock, query string) (string, error) {
	llm, err := openai.New(
		openai.WithBaseURL(g.cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(g.cfg.Key, "Bearer ")),
		openai.WithModel(g.cfg.Model),
	)
	if err != nil {
		return "", fmt.Errorf("init llm: %w", err)
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: systemPrompt}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBlock, query)}},
		},
	}

	log.Debug().Str("model", g.cfg.Model).Int("context_chars", len(contextBlock)).Msg("Generating answer")
	res, err := llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return res.Choices[0].Content, nil
}
