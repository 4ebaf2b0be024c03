package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ap-video-web/internal/domain"
)

// ErrMissingCredential はプロバイダーの API トークンが設定も入力もされていないことを表します。
var ErrMissingCredential = errors.New("API token is required for the video provider")

// GenerationInput は動画生成サービスに渡す入力です。
type GenerationInput struct {
	ImageURL string
	Prompt   string
	// Credential が空でなければ、設定済みのトークンより優先されます。
	Credential string
}

// VideoGenerator は画像URLとプロンプトから動画を生成するサービスのインターフェースです。
// Generate はリモートのジョブが完了するまでブロックします。
type VideoGenerator interface {
	Name() string
	Generate(ctx context.Context, in GenerationInput) (domain.GenerationResult, error)
}

// ProviderError は生成サービスが失敗を返したことを表します。
type ProviderError struct {
	Provider   string
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Provider
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Status != "" {
		msg = fmt.Sprintf("%s: job %s", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// waitPoll は次のポーリングまで待機します。ctx が終了した場合はその理由を返します。
func waitPoll(ctx context.Context, interval time.Duration) error {
	t := time.NewTimer(interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func pickCredential(override, configured string) (string, error) {
	if override != "" {
		return override, nil
	}
	if configured != "" {
		return configured, nil
	}
	return "", ErrMissingCredential
}
