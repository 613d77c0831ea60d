package receipt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/cache"

	"google.golang.org/genai"
)

// Recognizer turns an image into raw text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (string, error)
}

const recognizePrompt = "Transcribe every line of text printed on this receipt, top to bottom.\n" +
	"Keep the original line breaks, numbers and punctuation exactly as printed.\n" +
	"Do not summarize, translate or add any commentary. Output plain text only."

type generateFunc func(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error)

// GeminiRecognizer transcribes receipt images with a Gemini model.
type GeminiRecognizer struct {
	model    string
	generate generateFunc
}

// NewGeminiRecognizer reads credentials the way genai.NewClient does
// (GOOGLE_API_KEY or Vertex AI environment).
func NewGeminiRecognizer(ctx context.Context, model string) (*GeminiRecognizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiRecognizer{
		model: model,
		generate: func(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
			return client.Models.GenerateContent(ctx, model, contents, nil)
		},
	}, nil
}

func (g *GeminiRecognizer) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("empty image")
	}
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: recognizePrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		},
	}
	resp, err := g.generate(ctx, g.model, contents)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return stripFences(resp.Text()), nil
}

// stripFences removes a Markdown code fence the model may wrap text in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		return s
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// CachedRecognizer memoizes recognition by image digest.
type CachedRecognizer struct {
	next  Recognizer
	cache *cache.LRUCache[string]
}

func NewCachedRecognizer(next Recognizer, c *cache.LRUCache[string]) *CachedRecognizer {
	return &CachedRecognizer{next: next, cache: c}
}

func (c *CachedRecognizer) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	sum := sha256.Sum256(image)
	key := hex.EncodeToString(sum[:])
	return c.cache.GetOrLoad(ctx, key, func(ctx context.Context) (string, error) {
		return c.next.Recognize(ctx, image, mimeType)
	})
}
