package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ap-video-web/internal/domain"
	"ap-video-web/internal/media"
)

const imgbbUploadName = "uploaded_image"

// ImgBBHost は ImgBB API を使った ImageHost の実装です。
// 画像は JPEG に変換し、base64 のフォーム値として送信します。
type ImgBBHost struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewImgBBHost(client *http.Client, endpoint, apiKey string) *ImgBBHost {
	return &ImgBBHost{client: client, endpoint: endpoint, apiKey: apiKey}
}

func (h *ImgBBHost) Name() string { return "imgbb" }

func (h *ImgBBHost) Format() media.ImageFormat { return media.JPEG }

// Upload は画像を ImgBB にアップロードします。
func (h *ImgBBHost) Upload(ctx context.Context, img media.EncodedImage) (domain.HostedImageReference, error) {
	form := url.Values{
		"key":   {h.apiKey},
		"image": {base64.StdEncoding.EncodeToString(img.Data)},
		"name":  {imgbbUploadName},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("imgbb: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("imgbb: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readHostResponse(h.Name(), resp)
	if err != nil {
		return domain.HostedImageReference{}, err
	}

	var result imgbbResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.HostedImageReference{}, fmt.Errorf("imgbb: malformed response: %w", err)
	}
	if !result.Success {
		msg := result.Error.Message
		if msg == "" {
			msg = "upload was not successful"
		}
		return domain.HostedImageReference{}, &HostError{Host: h.Name(), StatusCode: result.Status, Message: msg}
	}
	if result.Data.URL == "" {
		return domain.HostedImageReference{}, &HostError{Host: h.Name(), Message: "response has no image url"}
	}

	return domain.HostedImageReference{
		URL:        result.Data.URL,
		DisplayURL: result.Data.DisplayURL,
	}, nil
}
