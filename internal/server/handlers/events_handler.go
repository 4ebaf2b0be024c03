package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// subscriberBuffer は SSE 接続ごとのメッセージバッファです。
const subscriberBuffer = 16

// Events はパイプラインの状態を Server-Sent Events で配信します。
// 接続直後に現在のスナップショットを1件送ります。
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgCh := make(chan []byte, subscriberBuffer)
	if !h.events.Subscribe(msgCh) {
		http.Error(w, "event hub is not running", http.StatusServiceUnavailable)
		return
	}
	defer h.events.Unsubscribe(msgCh)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	initial, err := json.Marshal(h.service.Snapshot())
	if err != nil {
		slog.ErrorContext(r.Context(), "スナップショットの変換に失敗しました", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", initial)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.events.Done():
			return
		case msg := <-msgCh:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
