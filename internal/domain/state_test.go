package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateUploading, true},
		{StateComplete, StateUploading, true},
		{StateFailed, StateUploading, true},
		{StateUploading, StateUploading, false},
		{StateUploading, StateGenerating, true},
		{StateUploading, StateDownloading, false},
		{StateGenerating, StateDownloading, true},
		{StateGenerating, StateComplete, false},
		{StateDownloading, StateComplete, true},
		{StateUploading, StateFailed, true},
		{StateGenerating, StateFailed, true},
		{StateDownloading, StateFailed, true},
		{StateIdle, StateFailed, false},
		{StateComplete, StateFailed, false},
		{StateComplete, StateIdle, true},
		{StateFailed, StateIdle, true},
		{StateGenerating, StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_Progress(t *testing.T) {
	order := []State{StateIdle, StateUploading, StateGenerating, StateDownloading, StateComplete}
	last := -1
	for _, s := range order {
		if s.Progress() <= last {
			t.Errorf("progress of %s = %d, want greater than %d", s, s.Progress(), last)
		}
		last = s.Progress()
	}
	if StateComplete.Progress() != 100 {
		t.Errorf("complete progress = %d, want 100", StateComplete.Progress())
	}
}

func TestState_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Snapshot{State: StateDownloading})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"state":"downloading","progress":0}`
	if string(b) != want {
		t.Errorf("Marshal() = %s, want %s", b, want)
	}
}

func TestStageError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("run: %w", NewStageError(StateUploading, ErrUpload, 503, cause))

	if !errors.Is(err, ErrUpload) {
		t.Error("errors.Is(err, ErrUpload) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if errors.Is(err, ErrGeneration) {
		t.Error("errors.Is(err, ErrGeneration) = true, want false")
	}

	stage, ok := StageOf(err)
	if !ok || stage != StateUploading {
		t.Errorf("StageOf() = %v, %v, want uploading, true", stage, ok)
	}

	want := "run: image upload failed (status 503): connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
