package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ap-video-web/internal/domain"
)

const (
	replicateSucceeded = "succeeded"
	replicateFailed    = "failed"
	replicateCanceled  = "canceled"

	maxReplicateResponseBytes = 1 << 20
)

// ReplicateConfig は Replicate プロバイダーの設定です。
type ReplicateConfig struct {
	BaseURL string
	// Model は "owner/name" 形式のモデル名です。
	Model          string
	APIToken       string
	RequestTimeout time.Duration
	PollInterval   time.Duration
}

// ReplicateGenerator は Replicate の predictions API を使う VideoGenerator です。
// "Prefer: wait" で同期的な完了を待ち、終わっていなければ urls.get をポーリングします。
type ReplicateGenerator struct {
	client *http.Client
	cfg    ReplicateConfig
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func NewReplicateGenerator(client *http.Client, cfg ReplicateConfig) *ReplicateGenerator {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &ReplicateGenerator{client: client, cfg: cfg}
}

func (g *ReplicateGenerator) Name() string { return "replicate" }

// Generate は予測ジョブを作成し、完了した動画のURLを返します。
func (g *ReplicateGenerator) Generate(ctx context.Context, in GenerationInput) (domain.GenerationResult, error) {
	token, err := pickCredential(in.Credential, g.cfg.APIToken)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"input": map[string]any{
			"prompt":            in.Prompt,
			"first_frame_image": in.ImageURL,
		},
	})
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("replicate: failed to encode input: %w", err)
	}

	createURL := fmt.Sprintf("%s/models/%s/predictions", g.cfg.BaseURL, g.cfg.Model)
	pred, err := g.call(ctx, http.MethodPost, createURL, token, payload)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	slog.InfoContext(ctx, "Replicate prediction created", "prediction_id", pred.ID, "status", pred.Status)

	for !isReplicateTerminal(pred.Status) {
		if err := waitPoll(ctx, g.cfg.PollInterval); err != nil {
			return domain.GenerationResult{}, fmt.Errorf("replicate: waiting for prediction %s: %w", pred.ID, err)
		}
		getURL := pred.URLs.Get
		if getURL == "" {
			getURL = fmt.Sprintf("%s/predictions/%s", g.cfg.BaseURL, pred.ID)
		}
		if pred, err = g.call(ctx, http.MethodGet, getURL, token, nil); err != nil {
			return domain.GenerationResult{}, err
		}
		slog.DebugContext(ctx, "Replicate prediction polled", "prediction_id", pred.ID, "status", pred.Status)
	}

	if pred.Status != replicateSucceeded {
		return domain.GenerationResult{}, &ProviderError{
			Provider: g.Name(),
			Status:   pred.Status,
			Message:  replicateErrorMessage(pred.Error),
		}
	}

	videoURL, err := parseReplicateOutput(pred.Output)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return domain.GenerationResult{VideoURL: videoURL}, nil
}

// call は1回の API 呼び出しを RequestTimeout の範囲で実行します。
func (g *ReplicateGenerator) call(ctx context.Context, method, url, token string, body []byte) (replicatePrediction, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(callCtx, method, url, reader)
	if err != nil {
		return replicatePrediction{}, fmt.Errorf("replicate: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "wait")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return replicatePrediction{}, fmt.Errorf("replicate: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplicateResponseBytes))
	if err != nil {
		return replicatePrediction{}, fmt.Errorf("replicate: failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return replicatePrediction{}, &ProviderError{
			Provider:   g.Name(),
			StatusCode: resp.StatusCode,
			Message:    replicateDetail(raw),
		}
	}

	var pred replicatePrediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return replicatePrediction{}, fmt.Errorf("replicate: malformed response: %w", err)
	}
	return pred, nil
}

func isReplicateTerminal(status string) bool {
	return status == replicateSucceeded || status == replicateFailed || status == replicateCanceled
}

// parseReplicateOutput は出力が URL 文字列でも URL のリストでも先頭の URL を返します。
func parseReplicateOutput(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}
	return "", &ProviderError{Provider: "replicate", Status: replicateSucceeded, Message: "prediction returned no video url"}
}

func replicateErrorMessage(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// replicateDetail はエラー応答の "detail" を取り出します。取れなければ本文を短くして返します。
func replicateDetail(raw []byte) string {
	var problem struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(raw, &problem); err == nil {
		if problem.Detail != "" {
			return problem.Detail
		}
		if problem.Title != "" {
			return problem.Title
		}
	}
	return truncate(strings.TrimSpace(string(raw)), 200)
}
