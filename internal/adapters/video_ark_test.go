package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

type fakeArk struct {
	t         *testing.T
	apiKey    string
	created   model.CreateContentGenerationTaskRequest
	statuses  []string
	gets      int
	createErr error
	getErr    error
	deadlines []bool
}

func (f *fakeArk) Create(ctx context.Context, req model.CreateContentGenerationTaskRequest) (model.CreateContentGenerationTaskResponse, error) {
	f.created = req
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
	var resp model.CreateContentGenerationTaskResponse
	if f.createErr != nil {
		return resp, f.createErr
	}
	if err := json.Unmarshal([]byte(`{"id":"cgt-1"}`), &resp); err != nil {
		f.t.Fatalf("unmarshal create response: %v", err)
	}
	return resp, nil
}

func (f *fakeArk) Get(ctx context.Context, req model.GetContentGenerationTaskRequest) (model.GetContentGenerationTaskResponse, error) {
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
	if f.getErr != nil {
		return model.GetContentGenerationTaskResponse{}, f.getErr
	}
	status := f.statuses[f.gets]
	f.gets++
	raw := `{"id":"cgt-1","status":"` + status + `"}`
	if status == "succeeded" {
		raw = `{"id":"cgt-1","status":"succeeded","content":{"video_url":"https://ark/video.mp4"}}`
	}
	var resp model.GetContentGenerationTaskResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		f.t.Fatalf("unmarshal get response: %v", err)
	}
	return resp, nil
}

func newFakeArkGenerator(f *fakeArk, apiKey string) *ArkGenerator {
	g := NewArkGenerator(ArkConfig{APIKey: apiKey, Model: "seedance", PollInterval: time.Millisecond, RequestTimeout: time.Second})
	g.newClient = func(key string) arkTaskAPI {
		f.apiKey = key
		return f
	}
	return g
}

func TestArkGenerator_Generate(t *testing.T) {
	f := &fakeArk{t: t, statuses: []string{"queued", "running", "succeeded"}}

	res, err := newFakeArkGenerator(f, "server-key").Generate(context.Background(), GenerationInput{
		ImageURL: "https://img/x.png",
		Prompt:   "raise the trunk",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.VideoURL != "https://ark/video.mp4" {
		t.Errorf("VideoURL = %q", res.VideoURL)
	}
	if f.apiKey != "server-key" {
		t.Errorf("api key = %q, want server-key", f.apiKey)
	}
	if f.gets != 3 {
		t.Errorf("gets = %d, want 3", f.gets)
	}
	if f.created.Model != "seedance" || len(f.created.Content) != 2 {
		t.Fatalf("create request = %+v", f.created)
	}
	if got := f.created.Content[1].ImageURL.URL; got != "https://img/x.png" {
		t.Errorf("image url = %q", got)
	}
	for i, ok := range f.deadlines {
		if !ok {
			t.Errorf("call %d had no deadline", i)
		}
	}
}

func TestArkGenerator_Failures(t *testing.T) {
	t.Run("task failed", func(t *testing.T) {
		f := &fakeArk{t: t, statuses: []string{"running", "failed"}}
		_, err := newFakeArkGenerator(f, "k").Generate(context.Background(), GenerationInput{ImageURL: "u", Prompt: "p"})
		var pe *ProviderError
		if !errors.As(err, &pe) || pe.Status != "failed" {
			t.Fatalf("Generate() error = %v, want failed ProviderError", err)
		}
	})

	t.Run("create error keeps the cause", func(t *testing.T) {
		cause := errors.New("invalid model")
		f := &fakeArk{t: t, createErr: cause}
		_, err := newFakeArkGenerator(f, "k").Generate(context.Background(), GenerationInput{ImageURL: "u", Prompt: "p"})
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("Generate() error = %v, want ProviderError", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("Generate() error = %v, want it to wrap %v", err, cause)
		}
	})

	t.Run("get error keeps the cause", func(t *testing.T) {
		f := &fakeArk{t: t, getErr: context.DeadlineExceeded}
		_, err := newFakeArkGenerator(f, "k").Generate(context.Background(), GenerationInput{ImageURL: "u", Prompt: "p"})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Generate() error = %v, want DeadlineExceeded", err)
		}
	})

	t.Run("user credential overrides missing key", func(t *testing.T) {
		f := &fakeArk{t: t, statuses: []string{"succeeded"}}
		if _, err := newFakeArkGenerator(f, "").Generate(context.Background(), GenerationInput{ImageURL: "u", Prompt: "p", Credential: "user-key"}); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if f.apiKey != "user-key" {
			t.Errorf("api key = %q, want user-key", f.apiKey)
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		f := &fakeArk{t: t}
		_, err := newFakeArkGenerator(f, "").Generate(context.Background(), GenerationInput{ImageURL: "u", Prompt: "p"})
		if !errors.Is(err, ErrMissingCredential) {
			t.Fatalf("Generate() error = %v, want ErrMissingCredential", err)
		}
	})
}
