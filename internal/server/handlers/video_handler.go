package handlers

import (
	"bytes"
	"errors"
	"mime"
	"net/http"

	"ap-video-web/internal/domain"
)

// ServeVideo は完成した動画を返します。?download=1 の場合は添付ファイルとして返します。
// Range リクエストに対応するため http.ServeContent を使います。
func (h *Handler) ServeVideo(w http.ResponseWriter, r *http.Request) {
	artifact, ok := h.service.Artifact()
	if !ok {
		http.Error(w, "動画はまだありません", http.StatusNotFound)
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") == "1" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Cache-Control", "no-store")

	http.ServeContent(w, r, artifact.Filename, artifact.CreatedAt, bytes.NewReader(artifact.Data))
}

// HandleReset は保持している動画を破棄し、フォームに戻します。
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(); err != nil {
		if errors.Is(err, domain.ErrBusy) {
			http.Error(w, "生成中のためリセットできません", http.StatusConflict)
			return
		}
		http.Error(w, "リセットに失敗しました", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
