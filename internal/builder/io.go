package builder

import (
	"context"
	"fmt"

	"ap-video-web/internal/adapters"
	"ap-video-web/internal/app"
	"ap-video-web/internal/config"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// buildRemoteIO は、GCS ベースの I/O コンポーネントを初期化します。
func buildRemoteIO(ctx context.Context) (*app.RemoteIO, error) {
	factory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS factory: %w", err)
	}
	w, err := factory.OutputWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to create output writer: %w", err)
	}
	s, err := factory.URLSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to create URL signer: %w", err)
	}
	return &app.RemoteIO{
		Factory: factory,
		Writer:  w,
		Signer:  s,
	}, nil
}

// buildArchiver は gs://<bucket>/<BASE_OUTPUT_DIR>/<run-id>/ に動画を保存するアーカイバーを返します。
func buildArchiver(cfg *config.Config, rio *app.RemoteIO) *adapters.RemoteArchiver {
	runDir := func(runID string) string {
		return cfg.GetGCSObjectURL(cfg.GetRunDir(runID))
	}
	return adapters.NewRemoteArchiver(rio.Writer, rio.Signer, runDir, cfg.SignedURLExpiration)
}
