package domain

const CategoryNotAvailable = "N/A"

// NotificationRequest は Slack 等の通知コンポーネントで共有されるデータ構造です。
// 生成された動画のメタデータを通知先に伝えるために使用します。
type NotificationRequest struct {
	// RunID は実行ごとに払い出される識別子です。
	RunID string `json:"run_id"`

	// SourceURL は、動画の元になったホスト済み画像のURLです。
	SourceURL string `json:"source_url"`

	// OutputCategory は、出力の種別です。(例: "video-output", "error-report")
	OutputCategory string `json:"output_category"`

	// TargetTitle は、生成物のファイル名です。
	TargetTitle string `json:"target_title"`

	// ExecutionMode は、使用したホスティングと生成プロバイダーです。(例: "imgbb / replicate")
	ExecutionMode string `json:"execution_mode"`

	// Prompt は生成に使ったプロンプトです。
	Prompt string `json:"prompt"`
}
