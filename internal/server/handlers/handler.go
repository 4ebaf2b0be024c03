package handlers

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"ap-video-web/internal/config"
	"ap-video-web/internal/domain"

	"github.com/microcosm-cc/bluemonday"
)

const titleSuffix = " - AP Video Web"

// VideoService はハンドラーが呼び出すパイプラインの操作です。
type VideoService interface {
	Run(ctx context.Context, req domain.GenerationRequest) (domain.VideoArtifact, error)
	Reset() error
	Snapshot() domain.Snapshot
	Artifact() (domain.VideoArtifact, bool)
	RequiresCredential() bool
}

// EventSource はスナップショットの配信元です。
type EventSource interface {
	Subscribe(ch chan []byte) bool
	Unsubscribe(ch chan []byte)
	Done() <-chan struct{}
}

type Handler struct {
	cfg           *config.Config
	templateCache map[string]*template.Template
	service       VideoService
	events        EventSource
	policy        *bluemonday.Policy
}

// NewHandler は指定された構成に基づいて新しいハンドラーを初期化します。
// テンプレートをコンパイルし、レイアウトファイルが存在することを確認します。
func NewHandler(cfg *config.Config, service VideoService, events EventSource) (*Handler, error) {
	cache := make(map[string]*template.Template)
	layoutPath := filepath.Join(cfg.TemplateDir, "layout.html")
	if _, err := os.Stat(layoutPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("レイアウトテンプレートが見つかりません: %s", layoutPath)
	}

	pagePaths, err := filepath.Glob(filepath.Join(cfg.TemplateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("ページテンプレートの検索に失敗しました: %w", err)
	}

	funcMap := template.FuncMap{
		"humanBytes": humanBytes,
	}

	for _, pagePath := range pagePaths {
		pageName := filepath.Base(pagePath)
		if pageName == "layout.html" {
			continue
		}

		tmpl, err := template.New(pageName).Funcs(funcMap).ParseFiles(layoutPath, pagePath)
		if err != nil {
			return nil, fmt.Errorf("テンプレート %s の解析に失敗しました: %w", pageName, err)
		}
		cache[pageName] = tmpl
	}

	return &Handler{
		cfg:           cfg,
		templateCache: cache,
		service:       service,
		events:        events,
		policy:        bluemonday.StrictPolicy(),
	}, nil
}
