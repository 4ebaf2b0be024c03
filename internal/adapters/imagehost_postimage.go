package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"ap-video-web/internal/domain"
	"ap-video-web/internal/media"
)

// PostImageHost は PostImage の JSON エンドポイントを使った ImageHost の実装です。
// 画像は PNG に変換し、multipart の "upload" フィールドとして送信します。
type PostImageHost struct {
	client   *http.Client
	endpoint string
}

type postImageResponse struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	Error  string `json:"error"`
}

func NewPostImageHost(client *http.Client, endpoint string) *PostImageHost {
	return &PostImageHost{client: client, endpoint: endpoint}
}

func (h *PostImageHost) Name() string { return "postimage" }

func (h *PostImageHost) Format() media.ImageFormat { return media.PNG }

// Upload は画像を PostImage にアップロードします。
func (h *PostImageHost) Upload(ctx context.Context, img media.EncodedImage) (domain.HostedImageReference, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="upload"; filename=%q`, img.Filename()))
	header.Set("Content-Type", img.ContentType())
	part, err := mw.CreatePart(header)
	if err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("postimage: failed to create form part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("postimage: failed to write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("postimage: failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, &body)
	if err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("postimage: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("postimage: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := readHostResponse(h.Name(), resp)
	if err != nil {
		return domain.HostedImageReference{}, err
	}

	var result postImageResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("postimage: malformed response: %w", err)
	}
	if result.Status != "OK" {
		msg := result.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return domain.HostedImageReference{}, &HostError{Host: h.Name(), Message: msg}
	}
	if result.URL == "" {
		return domain.HostedImageReference{}, &HostError{Host: h.Name(), Message: "response has no image url"}
	}

	return domain.HostedImageReference{URL: result.URL}, nil
}
