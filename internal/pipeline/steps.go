package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ap-video-web/internal/adapters"
	"ap-video-web/internal/domain"
	"ap-video-web/internal/media"
)

const (
	videoFilenamePrefix = "generated_video_"
	videoFilenameLayout = "20060102150405"
	defaultVideoType    = "video/mp4"
)

// UploadImage は画像をホストの形式に変換してアップロードし、公開URLを返します。
// 失敗は domain.ErrUpload に分類されます。
func (p *VideoPipeline) UploadImage(ctx context.Context, image []byte) (domain.HostedImageReference, error) {
	encoded, err := media.Normalize(image, p.deps.Host.Format(), p.cfg.MaxImagePixels)
	if err != nil {
		return domain.HostedImageReference{}, domain.NewStageError(domain.StateUploading, domain.ErrUpload, 0, err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, p.cfg.UploadTimeout)
	defer cancel()

	ref, err := p.deps.Host.Upload(uploadCtx, encoded)
	if err != nil {
		return domain.HostedImageReference{}, domain.NewStageError(domain.StateUploading, domain.ErrUpload, statusCodeOf(err), err)
	}

	slog.InfoContext(ctx, "Image uploaded", "host", p.deps.Host.Name(), "url", ref.URL, "bytes", len(encoded.Data))
	return ref, nil
}

// GenerateVideo はホスト済み画像とプロンプトから動画を生成し、完成動画のURLを返します。
// ProbeImage が有効な場合は先に画像URLへの到達性を確認し、失敗すれば DisplayURL を試します。
// credential が空なら設定済みのトークンを使います。
func (p *VideoPipeline) GenerateVideo(ctx context.Context, ref domain.HostedImageReference, prompt, credential string) (domain.GenerationResult, error) {
	imageURL := ref.URL
	if p.cfg.ProbeImage {
		reachable, err := p.probeImage(ctx, ref)
		if err != nil {
			return domain.GenerationResult{}, domain.NewStageError(domain.StateGenerating, domain.ErrImageUnreachable, statusCodeOf(err), err)
		}
		imageURL = reachable
	}

	if p.deps.Translator != nil {
		translated, err := p.deps.Translator.Translate(ctx, prompt)
		if err != nil {
			return domain.GenerationResult{}, domain.NewStageError(domain.StateGenerating, domain.ErrGeneration, 0, err)
		}
		prompt = translated
	}

	result, err := p.deps.Generator.Generate(ctx, adapters.GenerationInput{
		ImageURL:   imageURL,
		Prompt:     prompt,
		Credential: credential,
	})
	if err != nil {
		return domain.GenerationResult{}, domain.NewStageError(domain.StateGenerating, domain.ErrGeneration, statusCodeOf(err), err)
	}
	if result.VideoURL == "" {
		return domain.GenerationResult{}, domain.NewStageError(domain.StateGenerating, domain.ErrGeneration, 0, errors.New("provider returned an empty video url"))
	}

	slog.InfoContext(ctx, "Video generated", "provider", p.deps.Generator.Name(), "video_url", result.VideoURL)
	return result, nil
}

// DownloadVideo は完成動画を取得し、タイムスタンプ付きのファイル名を付けて返します。
// 空の応答や上限サイズを超える応答は domain.ErrDownload になります。
func (p *VideoPipeline) DownloadVideo(ctx context.Context, videoURL string) (domain.VideoArtifact, error) {
	downloadCtx, cancel := context.WithTimeout(ctx, p.cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, videoURL, nil)
	if err != nil {
		return domain.VideoArtifact{}, domain.NewStageError(domain.StateDownloading, domain.ErrDownload, 0, err)
	}

	resp, err := p.deps.HTTPClient.Do(req)
	if err != nil {
		return domain.VideoArtifact{}, domain.NewStageError(domain.StateDownloading, domain.ErrDownload, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.VideoArtifact{}, domain.NewStageError(domain.StateDownloading, domain.ErrDownload, resp.StatusCode, fmt.Errorf("unexpected response from %s", videoURL))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxVideoBytes+1))
	if err != nil {
		return domain.VideoArtifact{}, domain.NewStageError(domain.StateDownloading, domain.ErrDownload, resp.StatusCode, err)
	}
	if len(data) == 0 {
		return domain.VideoArtifact{}, domain.NewStageError(domain.StateDownloading, domain.ErrDownload, resp.StatusCode, errors.New("empty response body"))
	}
	if int64(len(data)) > p.cfg.MaxVideoBytes {
		return domain.VideoArtifact{}, domain.NewStageError(domain.StateDownloading, domain.ErrDownload, resp.StatusCode, fmt.Errorf("video exceeds %d bytes", p.cfg.MaxVideoBytes))
	}

	createdAt := p.now()
	artifact := domain.VideoArtifact{
		Filename:    videoFilenamePrefix + createdAt.Format(videoFilenameLayout) + ".mp4",
		Data:        data,
		ContentType: videoContentType(resp.Header.Get("Content-Type")),
		CreatedAt:   createdAt,
	}

	slog.InfoContext(ctx, "Video downloaded", "filename", artifact.Filename, "bytes", artifact.Size())
	return artifact, nil
}

// probeImage は HEAD リクエストで到達可能な画像URLを探します。
func (p *VideoPipeline) probeImage(ctx context.Context, ref domain.HostedImageReference) (string, error) {
	candidates := []string{ref.URL}
	if ref.DisplayURL != "" && ref.DisplayURL != ref.URL {
		candidates = append(candidates, ref.DisplayURL)
	}

	var errs []error
	for _, u := range candidates {
		err := p.head(ctx, u)
		if err == nil {
			return u, nil
		}
		slog.WarnContext(ctx, "Hosted image probe failed", "url", u, "error", err)
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}

func (p *VideoPipeline) head(ctx context.Context, u string) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, u, nil)
	if err != nil {
		return err
	}
	resp, err := p.deps.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &probeError{URL: u, StatusCode: resp.StatusCode}
	}
	return nil
}

type probeError struct {
	URL        string
	StatusCode int
}

func (e *probeError) Error() string {
	return fmt.Sprintf("HEAD %s: status %d", e.URL, e.StatusCode)
}

// statusCodeOf はアダプターのエラーから HTTP ステータスを取り出します。不明なら 0 です。
func statusCodeOf(err error) int {
	var he *adapters.HostError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	var pe *adapters.ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	var probe *probeError
	if errors.As(err, &probe) {
		return probe.StatusCode
	}
	return 0
}

func videoContentType(header string) string {
	if strings.HasPrefix(header, "video/") {
		return strings.TrimSpace(strings.Split(header, ";")[0])
	}
	return defaultVideoType
}
