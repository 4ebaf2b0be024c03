package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"ap-video-web/internal/domain"
)

const publishBuffer = 100

// Hub はパイプラインの状態スナップショットを SSE の購読者へ配信します。
//
// 購読者の集合は Run のゴルーチンだけが触ります。
// 購読者のチャネルは呼び出し側が用意し、閉じるのも呼び出し側です。
type Hub struct {
	clients map[chan []byte]struct{}

	subscribe   chan chan []byte
	unsubscribe chan chan []byte
	publish     chan []byte
	done        chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[chan []byte]struct{}),
		subscribe:   make(chan chan []byte),
		unsubscribe: make(chan chan []byte),
		publish:     make(chan []byte, publishBuffer),
		done:        make(chan struct{}),
	}
}

// Run はイベントループです。ctx が終了するまでブロックします。
//
//	hub := events.NewHub()
//	go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-h.subscribe:
			h.clients[ch] = struct{}{}
		case ch := <-h.unsubscribe:
			delete(h.clients, ch)
		case msg := <-h.publish:
			for ch := range h.clients {
				select {
				case ch <- msg:
				default:
					// 読み取りが追いつかない購読者には送らない
				}
			}
		}
	}
}

// Publish はスナップショットを JSON にして全購読者へ送ります。
// バッファが満杯の場合は捨てます。
func (h *Hub) Publish(snap domain.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		slog.Error("Failed to encode snapshot", "error", err)
		return
	}
	select {
	case h.publish <- msg:
	default:
		slog.Warn("SSE publish buffer full, dropping snapshot", "state", snap.State)
	}
}

// Subscribe は ch を購読者として登録します。ch はバッファ付きにしてください。
// Run が終了していれば false を返します。
func (h *Hub) Subscribe(ch chan []byte) bool {
	select {
	case h.subscribe <- ch:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe は ch の登録を解除します。
func (h *Hub) Unsubscribe(ch chan []byte) {
	select {
	case h.unsubscribe <- ch:
	case <-h.done:
	}
}

// Done は Run が終了すると閉じられます。
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
