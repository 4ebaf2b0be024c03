package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ap-video-web/internal/domain"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-notifier/pkg/factory"
	"github.com/shouni/go-notifier/pkg/slack"
)

// --- インターフェース定義 ---

type SlackNotifier interface {
	Notify(ctx context.Context, publicURL, storageURI string, req domain.NotificationRequest) error
	NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error
}

// --- 具象アダプター ---

type SlackAdapter struct {
	httpClient  httpkit.ClientInterface
	webhookURL  string
	slackClient *slack.Client
}

func NewSlackAdapter(httpClient httpkit.ClientInterface, webhookURL string) (*SlackAdapter, error) {
	if webhookURL == "" {
		return &SlackAdapter{webhookURL: webhookURL}, nil
	}
	client, err := factory.GetSlackClient(httpClient)
	if err != nil {
		return nil, fmt.Errorf("Slackクライアントの初期化に失敗しました: %w", err)
	}

	return &SlackAdapter{
		httpClient:  httpClient,
		webhookURL:  webhookURL,
		slackClient: client,
	}, nil
}

// Notify は動画の公開URLとストレージ情報を含む完了通知を送信します。
func (a *SlackAdapter) Notify(ctx context.Context, publicURL, storageURI string, req domain.NotificationRequest) error {
	if a.slackClient == nil {
		slog.InfoContext(ctx, "Slackクライアントが初期化されていないため、通知をスキップします。", "run_id", req.RunID)
		return nil
	}

	title := "🎬 動画の生成が完了しました！"
	content := buildSlackContent(publicURL, storageURI, req)

	if err := a.slackClient.SendTextWithHeader(ctx, title, content); err != nil {
		return fmt.Errorf("Slackへの投稿に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "Slack に完了通知を送信しました。", "run_id", req.RunID, "public_url", publicURL)
	return nil
}

// NotifyError はエラー詳細と実行メタデータを含むエラー通知を送信します。
func (a *SlackAdapter) NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error {
	if a.slackClient == nil {
		slog.InfoContext(ctx, "Slackクライアントが初期化されていないため、エラー通知をスキップします。", "error", errDetail)
		return nil
	}

	title := "❌ 動画生成中にエラーが発生しました"

	if err := a.slackClient.SendTextWithHeader(ctx, title, buildSlackErrorContent(errDetail, req)); err != nil {
		return fmt.Errorf("Slackへのエラー通知に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "Slack にエラー通知を送信しました。", "run_id", req.RunID, "error", errDetail)
	return nil
}

func buildSlackErrorContent(errDetail error, req domain.NotificationRequest) string {
	// Slackのmrkdwn形式では、アスタリスク(*)でテキストを囲むと太字として解釈されます。
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*実行ID:* `%s`\n", req.RunID))
	sb.WriteString(fmt.Sprintf("*実行モード:* `%s`\n", req.ExecutionMode))
	sb.WriteString(fmt.Sprintf("*プロンプト:* %s\n", req.Prompt))
	if req.SourceURL != "" {
		sb.WriteString(fmt.Sprintf("*ソース画像:* %s\n", req.SourceURL))
	}

	sb.WriteString("\n*エラー内容:*\n")
	sb.WriteString(fmt.Sprintf("```\n%v\n```\n", errDetail))

	if req.OutputCategory != "" && req.OutputCategory != domain.CategoryNotAvailable {
		sb.WriteString(fmt.Sprintf("\n📍 *カテゴリ:* `%s`", req.OutputCategory))
	}
	return sb.String()
}

// buildSlackContent は公開URL、ストレージURI、通知リクエストから Slack メッセージの内容を生成します。
func buildSlackContent(publicURL, storageURI string, req domain.NotificationRequest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**ファイル名:** `%s`\n", req.TargetTitle))
	sb.WriteString(fmt.Sprintf("**実行モード:** `%s`\n", req.ExecutionMode))
	sb.WriteString(fmt.Sprintf("**プロンプト:** %s\n", req.Prompt))
	sb.WriteString(fmt.Sprintf("**ソース画像:** %s\n\n", req.SourceURL))

	if publicURL != "" && publicURL != domain.CategoryNotAvailable {
		sb.WriteString(fmt.Sprintf("🌐 **動画:** <%s|ここから確認できます>\n", publicURL))
	}

	if strings.HasPrefix(storageURI, "gs://") {
		consoleURL := "https://console.cloud.google.com/storage/browser/" + strings.TrimPrefix(storageURI, "gs://")
		sb.WriteString(fmt.Sprintf("📂 **管理者(Console):** <%s|GCSで直接見る>\n", consoleURL))
		sb.WriteString(fmt.Sprintf("📍 **保存場所(URI):** `%s`\n", storageURI))
	}

	return sb.String()
}
