package builder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"ap-video-web/internal/adapters"
	"ap-video-web/internal/app"
	"ap-video-web/internal/config"
	"ap-video-web/internal/events"
	"ap-video-web/internal/pipeline"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// BuildContainer は外部サービスとの接続を確立し、依存関係を組み立てます。
func BuildContainer(ctx context.Context, cfg *config.Config) (*app.Container, error) {
	// 1. 基盤クライアントの初期化
	httpClient := httpkit.New(config.DefaultHTTPTimeout)
	// 生成とダウンロードは呼び出しごとに context でタイムアウトを設定します。
	outbound := &http.Client{}

	// 2. 外部サービスのアダプター
	host, err := buildImageHost(cfg, outbound)
	if err != nil {
		return nil, err
	}
	generator, err := buildGenerator(cfg, outbound)
	if err != nil {
		return nil, err
	}
	translator, err := buildTranslator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	slack, err := adapters.NewSlackAdapter(httpClient, cfg.SlackWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Slack adapter: %w", err)
	}

	// 3. I/O インフラ (GCS) はバケットが指定された場合のみ
	var rio *app.RemoteIO
	var archiver adapters.VideoArchiver
	if cfg.GCSBucket != "" {
		if rio, err = buildRemoteIO(ctx); err != nil {
			return nil, err
		}
		archiver = buildArchiver(cfg, rio)
	}

	hub := events.NewHub()
	deps := pipeline.Dependencies{
		HTTPClient: outbound,
		Host:       host,
		Generator:  generator,
		Translator: translator,
		Archiver:   archiver,
		Notifier:   slack,
		Observer:   hub,
	}

	slog.Info("Application container built",
		"image_host", host.Name(),
		"video_provider", generator.Name(),
		"translation", translator != nil,
		"archive", archiver != nil,
	)

	return &app.Container{
		Config:        cfg,
		RemoteIO:      rio,
		Pipeline:      pipeline.NewVideoPipeline(cfg, deps),
		Events:        hub,
		HTTPClient:    httpClient,
		SlackNotifier: slack,
	}, nil
}
