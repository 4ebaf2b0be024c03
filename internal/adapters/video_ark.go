package adapters

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ap-video-web/internal/domain"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

const arkSucceeded = "succeeded"

// arkTaskAPI は Ark のコンテンツ生成タスク API のうち、このアダプターが使う部分です。
type arkTaskAPI interface {
	Create(ctx context.Context, req model.CreateContentGenerationTaskRequest) (model.CreateContentGenerationTaskResponse, error)
	Get(ctx context.Context, req model.GetContentGenerationTaskRequest) (model.GetContentGenerationTaskResponse, error)
}

// arkClient は arkruntime.Client を arkTaskAPI に合わせるラッパーです。
type arkClient struct {
	c *arkruntime.Client
}

func (a arkClient) Create(ctx context.Context, req model.CreateContentGenerationTaskRequest) (model.CreateContentGenerationTaskResponse, error) {
	return a.c.CreateContentGenerationTask(ctx, req)
}

func (a arkClient) Get(ctx context.Context, req model.GetContentGenerationTaskRequest) (model.GetContentGenerationTaskResponse, error) {
	return a.c.GetContentGenerationTask(ctx, req)
}

// ArkConfig は Volcengine Ark プロバイダーの設定です。
type ArkConfig struct {
	APIKey         string
	Model          string
	PollInterval   time.Duration
	RequestTimeout time.Duration // Create / Get 各呼び出しのタイムアウト
}

// ArkGenerator は Volcengine Ark のコンテンツ生成タスクを使う VideoGenerator です。
type ArkGenerator struct {
	cfg       ArkConfig
	newClient func(apiKey string) arkTaskAPI
}

func NewArkGenerator(cfg ArkConfig) *ArkGenerator {
	return &ArkGenerator{
		cfg: cfg,
		newClient: func(apiKey string) arkTaskAPI {
			return arkClient{c: arkruntime.NewClientWithApiKey(apiKey)}
		},
	}
}

func (g *ArkGenerator) Name() string { return "ark" }

// Generate はテキストと参照画像からタスクを作成し、完了までポーリングします。
func (g *ArkGenerator) Generate(ctx context.Context, in GenerationInput) (domain.GenerationResult, error) {
	apiKey, err := pickCredential(in.Credential, g.cfg.APIKey)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	client := g.newClient(apiKey)

	createReq := model.CreateContentGenerationTaskRequest{
		Model: g.cfg.Model,
		Content: []*model.CreateContentGenerationContentItem{
			{
				Type: model.ContentGenerationContentItemTypeText,
				Text: volcengine.String(in.Prompt),
			},
			{
				Type: model.ContentGenerationContentItemTypeImage,
				ImageURL: &model.ImageURL{
					URL: in.ImageURL,
				},
			},
		},
	}

	created, err := g.create(ctx, client, createReq)
	if err != nil {
		return domain.GenerationResult{}, &ProviderError{Provider: g.Name(), Message: "create task", Err: err}
	}
	slog.InfoContext(ctx, "Ark generation task created", "task_id", created.ID)

	getReq := model.GetContentGenerationTaskRequest{}
	getReq.ID = created.ID

	for {
		task, err := g.get(ctx, client, getReq)
		if err != nil {
			return domain.GenerationResult{}, &ProviderError{Provider: g.Name(), Message: "get task " + created.ID, Err: err}
		}

		status := strings.ToLower(task.Status)
		switch {
		case status == arkSucceeded:
			if task.Content.VideoURL == "" {
				return domain.GenerationResult{}, &ProviderError{Provider: g.Name(), Status: status, Message: "task returned no video url"}
			}
			return domain.GenerationResult{VideoURL: task.Content.VideoURL}, nil
		case isArkFailure(status):
			return domain.GenerationResult{}, &ProviderError{Provider: g.Name(), Status: status}
		}

		slog.DebugContext(ctx, "Ark generation task polled", "task_id", created.ID, "status", status)
		if err := waitPoll(ctx, g.cfg.PollInterval); err != nil {
			return domain.GenerationResult{}, err
		}
	}
}

func (g *ArkGenerator) create(ctx context.Context, client arkTaskAPI, req model.CreateContentGenerationTaskRequest) (model.CreateContentGenerationTaskResponse, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	return client.Create(callCtx, req)
}

func (g *ArkGenerator) get(ctx context.Context, client arkTaskAPI, req model.GetContentGenerationTaskRequest) (model.GetContentGenerationTaskResponse, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	return client.Get(callCtx, req)
}

// callContext は RequestTimeout が設定されていれば1回の API 呼び出し用の期限を付けます。
func (g *ArkGenerator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.cfg.RequestTimeout)
}

func isArkFailure(status string) bool {
	switch status {
	case "failed", "cancelled", "canceled", "expired":
		return true
	}
	return false
}
