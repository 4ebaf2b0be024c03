package pipeline

import (
	"context"
	"log/slog"
	"time"

	"ap-video-web/internal/domain"
)

// videoExecution は一回の実行に関する情報 (実行ID、開始時刻、ホスト済み画像) を保持します。
type videoExecution struct {
	pipeline  *VideoPipeline
	req       domain.GenerationRequest
	runID     string
	startTime time.Time
	sourceURL string
}

// run は各ステージを順番に実行し、結果を通知します。
// 前のステージが値を返さない限り、次のステージは呼び出しません。
func (e *videoExecution) run(ctx context.Context) (artifact domain.VideoArtifact, err error) {
	p := e.pipeline
	logger := slog.With("run_id", e.runID)

	// 失敗時の状態遷移と通知を defer 文で一括管理します。
	defer func() {
		if err != nil {
			p.fail(err)
			logger.ErrorContext(ctx, "Pipeline execution failed", "error", err, "elapsed", time.Since(e.startTime))
			p.notifyError(ctx, e, err)
		}
	}()

	logger.InfoContext(ctx, "Pipeline execution started", "mode", p.ExecutionMode(), "image_bytes", len(e.req.Image))

	// --- Stage 1: Upload ---
	ref, err := p.UploadImage(ctx, e.req.Image)
	if err != nil {
		return domain.VideoArtifact{}, err
	}
	e.sourceURL = ref.URL
	p.advance(domain.StateGenerating, func() { p.imageURL = ref.URL })

	// --- Stage 2: Generate ---
	result, err := p.GenerateVideo(ctx, ref, e.req.Prompt, e.req.Credential)
	if err != nil {
		return domain.VideoArtifact{}, err
	}
	p.advance(domain.StateDownloading, func() { p.videoURL = result.VideoURL })

	// --- Stage 3: Download ---
	artifact, err = p.DownloadVideo(ctx, result.VideoURL)
	if err != nil {
		return domain.VideoArtifact{}, err
	}
	p.advance(domain.StateComplete, func() {
		stored := artifact
		p.artifact = &stored
	})

	logger.InfoContext(ctx, "Pipeline execution completed",
		"filename", artifact.Filename,
		"bytes", artifact.Size(),
		"elapsed", time.Since(e.startTime),
	)

	// アーカイブと通知の失敗は、実行結果には影響させません。
	storageURI, publicURL := p.archive(ctx, e, artifact)
	p.notifySuccess(ctx, e, artifact, storageURI, publicURL)

	return artifact, nil
}
