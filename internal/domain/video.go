package domain

import "time"

// DefaultPrompt はフォームの初期値として表示するプロンプトです。
const DefaultPrompt = "an elephant turns blue and raises its trunk"

// GenerationRequest はフォーム送信時に作られる一回分の生成指示です。
// 送信後は変更しません。
type GenerationRequest struct {
	// Image はアップロードされた元画像のバイト列です。
	Image []byte `validate:"required,min=1"`
	// Prompt は動画で起きてほしい変化の説明です。
	Prompt string `validate:"required"`
	// Credential はユーザーが入力した API トークンです。空の場合は設定値を使います。
	Credential string
}

// HostedImageReference は画像ホスティングにアップロードされた画像の公開URLです。
type HostedImageReference struct {
	URL string `json:"url"`
	// DisplayURL は URL に到達できない場合の代替URLです。(ImgBB の display_url)
	DisplayURL string `json:"display_url,omitempty"`
}

// GenerationResult は動画生成サービスが返した完成動画のURLです。
type GenerationResult struct {
	VideoURL string `json:"video_url"`
}

// VideoArtifact はダウンロード済みの動画です。リセットされるまで保持されます。
type VideoArtifact struct {
	Filename    string
	Data        []byte
	ContentType string
	CreatedAt   time.Time
}

// Size は動画のバイト数を返します。
func (a VideoArtifact) Size() int {
	return len(a.Data)
}
