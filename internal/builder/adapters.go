package builder

import (
	"context"
	"fmt"
	"net/http"

	"ap-video-web/internal/adapters"
	"ap-video-web/internal/config"
)

// buildImageHost は IMAGE_HOST に応じた画像ホスティングのアダプターを返します。
func buildImageHost(cfg *config.Config, client *http.Client) (adapters.ImageHost, error) {
	switch cfg.ImageHost {
	case config.HostImgBB:
		return adapters.NewImgBBHost(client, cfg.ImgBBEndpoint, cfg.ImgBBAPIKey), nil
	case config.HostPostImage:
		return adapters.NewPostImageHost(client, cfg.PostImageEndpoint), nil
	default:
		return nil, fmt.Errorf("unsupported image host: %s", cfg.ImageHost)
	}
}

// buildGenerator は VIDEO_PROVIDER に応じた動画生成のアダプターを返します。
func buildGenerator(cfg *config.Config, client *http.Client) (adapters.VideoGenerator, error) {
	switch cfg.VideoProvider {
	case config.ProviderReplicate:
		return adapters.NewReplicateGenerator(client, adapters.ReplicateConfig{
			BaseURL:        cfg.ReplicateBaseURL,
			Model:          cfg.ReplicateModel,
			APIToken:       cfg.ReplicateAPIToken,
			RequestTimeout: cfg.RequestTimeout,
			PollInterval:   cfg.PollInterval,
		}), nil
	case config.ProviderArk:
		return adapters.NewArkGenerator(adapters.ArkConfig{
			APIKey:         cfg.ArkAPIKey,
			Model:          cfg.ArkModel,
			PollInterval:   cfg.PollInterval,
			RequestTimeout: cfg.RequestTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported video provider: %s", cfg.VideoProvider)
	}
}

// buildTranslator は GEMINI_API_KEY が設定されている場合のみ翻訳アダプターを返します。
func buildTranslator(ctx context.Context, cfg *config.Config) (adapters.PromptTranslator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, nil
	}
	t, err := adapters.NewGeminiTranslator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt translator: %w", err)
	}
	return t, nil
}
