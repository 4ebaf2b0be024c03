package handlers

import (
	"net/http"

	"ap-video-web/internal/domain"
)

// indexViewData はテンプレート「index.html」に渡すためのデータ構造体
type indexViewData struct {
	Snapshot           domain.Snapshot
	Prompt             string
	RequiresCredential bool
	MaxImageMB         int64
	// Message はフォーム送信が失敗したときに表示する内容です。
	Message string
	// FailedStage は失敗したステージ名です。(例: "uploading")
	FailedStage string
}

func (h *Handler) newIndexView(prompt string) indexViewData {
	if prompt == "" {
		prompt = domain.DefaultPrompt
	}
	return indexViewData{
		Snapshot:           h.service.Snapshot(),
		Prompt:             prompt,
		RequiresCredential: h.service.RequiresCredential(),
		MaxImageMB:         h.cfg.MaxImageBytes >> 20,
	}
}

// Index はフォームと、完了していれば生成結果を表示します。
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index.html", "Image to Video", h.newIndexView(""))
}

// Status は現在のスナップショットを JSON で返します。
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
