package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// PromptTranslator は生成前にプロンプトを英語へ翻訳します。
type PromptTranslator interface {
	Translate(ctx context.Context, prompt string) (string, error)
}

// textGenerator は genai.Models のうち翻訳に使う部分です。
type textGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiTranslator は Gemini で動画プロンプトを英訳する PromptTranslator です。
type GeminiTranslator struct {
	models textGenerator
	model  string
}

// NewGeminiTranslator は Gemini API クライアントを初期化します。
func NewGeminiTranslator(ctx context.Context, apiKey, model string) (*GeminiTranslator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiTranslator{models: client.Models, model: model}, nil
}

// Translate は動画生成向けの自然な英語に翻訳したプロンプトを返します。
func (t *GeminiTranslator) Translate(ctx context.Context, prompt string) (string, error) {
	resp, err := t.models.GenerateContent(ctx, t.model, genai.Text(buildVideoPrompt(prompt)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to translate prompt: %w", err)
	}

	translated := strings.TrimSpace(resp.Text())
	if translated == "" {
		return "", fmt.Errorf("failed to translate prompt: empty response")
	}
	slog.InfoContext(ctx, "Prompt translated", "model", t.model, "translated", translated)
	return translated, nil
}

func buildVideoPrompt(prompt string) string {
	var sb strings.Builder
	sb.WriteString("Translate the following description of a short video into English. ")
	sb.WriteString("Keep it concise, describe only the motion and visual changes, and reply with the translation only.\n")
	sb.WriteString("Target Text: '" + prompt + "'\n")
	sb.WriteString("English Translation:")
	return sb.String()
}
