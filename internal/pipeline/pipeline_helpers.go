package pipeline

import (
	"context"
	"log/slog"

	"ap-video-web/internal/domain"
)

const (
	videoOutputCategory = "video-output"
	errorReportCategory = "error-report"
	defaultErrorTitle   = "動画生成エラー"
)

// archive は完成動画をリモートストレージへ複製します。アーカイバーが無ければ N/A を返します。
func (p *VideoPipeline) archive(ctx context.Context, e *videoExecution, artifact domain.VideoArtifact) (storageURI, publicURL string) {
	if p.deps.Archiver == nil {
		return domain.CategoryNotAvailable, domain.CategoryNotAvailable
	}

	storageURI, publicURL, err := p.deps.Archiver.Archive(ctx, e.runID, artifact)
	if err != nil {
		slog.ErrorContext(ctx, "Archive failed", "run_id", e.runID, "error", err)
		return domain.CategoryNotAvailable, domain.CategoryNotAvailable
	}
	return storageURI, publicURL
}

// notifySuccess は完了通知を送ります。
func (p *VideoPipeline) notifySuccess(ctx context.Context, e *videoExecution, artifact domain.VideoArtifact, storageURI, publicURL string) {
	if p.deps.Notifier == nil {
		return
	}

	req := p.buildNotification(e, videoOutputCategory, artifact.Filename)
	if err := p.deps.Notifier.Notify(ctx, publicURL, storageURI, req); err != nil {
		slog.ErrorContext(ctx, "Notification failed", "run_id", e.runID, "error", err)
	}
}

// notifyError はエラー発生時に SlackNotifier を通じて通知を行います。
func (p *VideoPipeline) notifyError(ctx context.Context, e *videoExecution, opErr error) {
	if p.deps.Notifier == nil {
		return
	}

	title := defaultErrorTitle
	if stage, ok := domain.StageOf(opErr); ok {
		title = defaultErrorTitle + " (" + stage.String() + ")"
	}

	req := p.buildNotification(e, errorReportCategory, title)
	if err := p.deps.Notifier.NotifyError(ctx, opErr, req); err != nil {
		slog.ErrorContext(ctx, "Failed to send error notification", "run_id", e.runID, "error", err)
	}
}

func (p *VideoPipeline) buildNotification(e *videoExecution, category, title string) domain.NotificationRequest {
	return domain.NotificationRequest{
		RunID:          e.runID,
		SourceURL:      e.sourceURL,
		OutputCategory: category,
		TargetTitle:    title,
		ExecutionMode:  p.ExecutionMode(),
		Prompt:         e.req.Prompt,
	}
}
