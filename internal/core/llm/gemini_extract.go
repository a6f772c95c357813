package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/contextcraft/docpipe/internal/core"
)

// Output budgets for the two extraction phases. The overview is a cheap
// survey; region extractions carry the bulk of the text.
const (
	overviewMaxTokens = 500
	regionMaxTokens   = 2000
)

const overviewPrompt = `Survey this document's structure. List its pages, ` +
	`section headings, tables and code blocks in reading order. Output a ` +
	`compact outline, nothing else.`

// GeminiExtractor implements core.ExtractionService against a Gemini
// generative model that accepts raw document bytes.
type GeminiExtractor struct {
	client    *genai.Client
	modelName string
}

func NewGeminiExtractor(ctx context.Context, apiKey, modelName string) (*GeminiExtractor, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiExtractor{client: cl, modelName: modelName}, nil
}

func (g *GeminiExtractor) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiExtractor) StructureOverview(ctx context.Context, data []byte, mimeType string) (string, error) {
	return g.generate(ctx, data, mimeType, overviewPrompt, overviewMaxTokens)
}

func (g *GeminiExtractor) ExtractRegion(ctx context.Context, data []byte, mimeType string, region string) (string, error) {
	prompt := fmt.Sprintf(
		"Extract the readable text from the %s of this document. Preserve "+
			"headings, paragraph breaks and code blocks. Output the text only.",
		region,
	)
	return g.generate(ctx, data, mimeType, prompt, regionMaxTokens)
}

func (g *GeminiExtractor) generate(ctx context.Context, data []byte, mimeType, prompt string, maxTokens int32) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SetMaxOutputTokens(maxTokens)

	resp, err := m.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini extract: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini extract: empty response")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

var _ core.ExtractionService = (*GeminiExtractor)(nil)
