package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"ap-video-web/internal/domain"
	"ap-video-web/internal/media"
)

// maxHostResponseBytes は画像ホスティングの JSON 応答として読み込む上限です。
const maxHostResponseBytes = 1 << 20

// ImageHost は画像を公開URLとしてホストするサービスのインターフェースです。
type ImageHost interface {
	// Name はログや通知に使うサービス名です。
	Name() string
	// Format はアップロード前に正規化すべき画像形式です。
	Format() media.ImageFormat
	// Upload は画像をアップロードし、公開URLを返します。
	Upload(ctx context.Context, img media.EncodedImage) (domain.HostedImageReference, error)
}

// HostError は画像ホスティングが失敗を返したことを表します。
type HostError struct {
	Host       string
	StatusCode int
	Message    string
}

func (e *HostError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Host, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Host, e.Message)
}

// readHostResponse はステータスを検証し、応答本文を返します。
func readHostResponse(host string, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHostResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", host, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HostError{Host: host, StatusCode: resp.StatusCode, Message: truncate(string(body), 200)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
