package app

import (
	"log/slog"

	"ap-video-web/internal/adapters"
	"ap-video-web/internal/config"
	"ap-video-web/internal/events"
	"ap-video-web/internal/pipeline"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Container はアプリケーションの依存関係（DIコンテナ）を保持します。
type Container struct {
	Config *config.Config

	// I/O and Storage (GCS_VIDEO_BUCKET が未設定なら nil)
	RemoteIO *RemoteIO

	// Business Logic
	Pipeline *pipeline.VideoPipeline
	Events   *events.Hub

	// External Adapters
	HTTPClient    httpkit.ClientInterface
	SlackNotifier adapters.SlackNotifier
}

type RemoteIO struct {
	Factory remoteio.IOFactory
	Writer  remoteio.OutputWriter
	Signer  remoteio.URLSigner
}

// Close は、Container が保持するすべての外部接続リソースを安全に解放します。
func (c *Container) Close() {
	if c.RemoteIO != nil && c.RemoteIO.Factory != nil {
		if err := c.RemoteIO.Factory.Close(); err != nil {
			slog.Error("failed to close IOFactory", "error", err)
		}
	}
}
