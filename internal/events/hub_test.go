package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ap-video-web/internal/domain"
)

type received struct {
	State    string `json:"state"`
	Progress int    `json:"progress"`
}

func receive(t *testing.T, ch chan []byte) received {
	t.Helper()
	var got received
	select {
	case msg := <-ch:
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", msg, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return got
}

func TestHub_Broadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	a := make(chan []byte, 4)
	b := make(chan []byte, 4)
	if !h.Subscribe(a) || !h.Subscribe(b) {
		t.Fatal("Subscribe() = false on a running hub")
	}

	h.Publish(domain.Snapshot{State: domain.StateGenerating, Progress: domain.StateGenerating.Progress()})

	for _, ch := range []chan []byte{a, b} {
		if got := receive(t, ch); got.State != "generating" || got.Progress != 60 {
			t.Errorf("received %+v", got)
		}
	}

	h.Unsubscribe(a)
	h.Publish(domain.Snapshot{State: domain.StateComplete, Progress: 100})
	if got := receive(t, b); got.State != "complete" {
		t.Errorf("b received %q, want complete", got.State)
	}
	select {
	case msg := <-a:
		t.Errorf("unsubscribed client received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	slow := make(chan []byte) // 誰も読まない
	fast := make(chan []byte, 1)
	h.Subscribe(slow)
	h.Subscribe(fast)

	h.Publish(domain.Snapshot{State: domain.StateUploading})
	receive(t, fast)
}

func TestHub_StoppedHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if h.Subscribe(make(chan []byte, 1)) {
		t.Error("Subscribe() = true on a stopped hub")
	}
	h.Unsubscribe(make(chan []byte, 1))

	// 停止後もバッファが空いている間は Publish がブロックしないこと
	for i := 0; i < publishBuffer+1; i++ {
		h.Publish(domain.Snapshot{})
	}
}
