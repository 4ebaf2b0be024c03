package adapters

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"ap-video-web/internal/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// VideoArchiver は完成した動画をリモートストレージへ複製します。
type VideoArchiver interface {
	// Archive は保存先URIとダウンロード用の署名付きURLを返します。
	Archive(ctx context.Context, runID string, artifact domain.VideoArtifact) (storageURI, publicURL string, err error)
}

// RemoteArchiver は go-remote-io の Writer/Signer を使う VideoArchiver です。
type RemoteArchiver struct {
	writer remoteio.OutputWriter
	signer remoteio.URLSigner
	runDir func(runID string) string
	expiry time.Duration
}

// NewRemoteArchiver は runDir が返す実行ごとのディレクトリ ("gs://bucket/output/<run-id>" など) に保存するアーカイバーを返します。
func NewRemoteArchiver(writer remoteio.OutputWriter, signer remoteio.URLSigner, runDir func(runID string) string, expiry time.Duration) *RemoteArchiver {
	return &RemoteArchiver{
		writer: writer,
		signer: signer,
		runDir: runDir,
		expiry: expiry,
	}
}

// Archive は動画を書き込み、署名付きURLを生成します。
// 署名に失敗しても保存自体は成功として扱い、publicURL を N/A にします。
func (a *RemoteArchiver) Archive(ctx context.Context, runID string, artifact domain.VideoArtifact) (string, string, error) {
	uri := joinURI(a.runDir(runID), artifact.Filename)

	if err := a.writer.Write(ctx, uri, bytes.NewReader(artifact.Data), artifact.ContentType); err != nil {
		return "", "", fmt.Errorf("failed to archive video to %s: %w", uri, err)
	}

	publicURL := domain.CategoryNotAvailable
	if a.signer != nil {
		signed, err := a.signer.GenerateSignedURL(ctx, uri, http.MethodGet, a.expiry)
		if err != nil {
			slog.ErrorContext(ctx, "署名付きURL生成失敗", "path", uri, "error", err)
		} else {
			publicURL = signed
		}
	}

	slog.InfoContext(ctx, "Video archived", "run_id", runID, "uri", uri, "bytes", artifact.Size())
	return uri, publicURL, nil
}

// joinURI は "gs://" のスキームを壊さずにパスを結合します。
func joinURI(base string, elems ...string) string {
	const scheme = "gs://"
	if rest, ok := strings.CutPrefix(base, scheme); ok {
		return scheme + path.Join(append([]string{rest}, elems...)...)
	}
	return path.Join(append([]string{base}, elems...)...)
}
