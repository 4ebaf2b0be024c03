package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ap-video-web/internal/adapters"
	"ap-video-web/internal/config"
	"ap-video-web/internal/domain"

	"github.com/google/uuid"
)

// StateObserver は状態が変わるたびにスナップショットを受け取ります。
type StateObserver interface {
	Publish(snap domain.Snapshot)
}

// Dependencies はパイプラインが呼び出す外部サービスです。
// Translator, Archiver, Notifier, Observer は nil でも動作します。
type Dependencies struct {
	HTTPClient *http.Client
	Host       adapters.ImageHost
	Generator  adapters.VideoGenerator
	Translator adapters.PromptTranslator
	Archiver   adapters.VideoArchiver
	Notifier   adapters.SlackNotifier
	Observer   StateObserver
}

// VideoPipeline は アップロード → 生成 → ダウンロード を順に実行し、進行状態を保持します。
// 同時に実行できるのは1回だけで、その判定は状態そのもので行います。
// mu は HTTP ハンドラーから状態を安全に読み書きするためだけに使います。
type VideoPipeline struct {
	cfg  *config.Config
	deps Dependencies

	now      func() time.Time
	newRunID func() string

	mu       sync.Mutex
	state    domain.State
	runID    string
	imageURL string
	videoURL string
	artifact *domain.VideoArtifact
	lastErr  string
}

func NewVideoPipeline(cfg *config.Config, deps Dependencies) *VideoPipeline {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{}
	}
	return &VideoPipeline{
		cfg:      cfg,
		deps:     deps,
		now:      time.Now,
		newRunID: uuid.NewString,
		state:    domain.StateIdle,
	}
}

// Run は生成指示を受け取り、3つのステージを順に実行します。
// 最初に失敗したステージで打ち切り、状態を Failed にしてそのエラーを返します。
// 別の実行が進行中の場合は何もせず domain.ErrBusy を返します。
func (p *VideoPipeline) Run(ctx context.Context, req domain.GenerationRequest) (domain.VideoArtifact, error) {
	if err := config.Validator().Struct(req); err != nil {
		return domain.VideoArtifact{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	runID, err := p.begin()
	if err != nil {
		return domain.VideoArtifact{}, err
	}

	exec := &videoExecution{
		pipeline:  p,
		req:       req,
		runID:     runID,
		startTime: p.now(),
	}
	return exec.run(ctx)
}

// Reset は Complete/Failed/Idle から Idle に戻し、保持している動画と一時的な状態を破棄します。
func (p *VideoPipeline) Reset() error {
	p.mu.Lock()
	if !p.state.CanTransition(domain.StateIdle) {
		p.mu.Unlock()
		return domain.ErrBusy
	}
	prev := p.runID
	p.state = domain.StateIdle
	p.clearLocked()
	snap := p.snapshotLocked()
	p.mu.Unlock()

	slog.Info("Pipeline reset", "run_id", prev)
	p.publish(snap)
	return nil
}

// Snapshot はプレゼンテーション層向けの現在の状態を返します。
func (p *VideoPipeline) Snapshot() domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Artifact は完成した動画を返します。Complete 以外では false を返します。
func (p *VideoPipeline) Artifact() (domain.VideoArtifact, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != domain.StateComplete || p.artifact == nil {
		return domain.VideoArtifact{}, false
	}
	return *p.artifact, true
}

// RequiresCredential はユーザーが API トークンを入力する必要があるかを返します。
func (p *VideoPipeline) RequiresCredential() bool {
	return p.cfg.RequiresUserCredential()
}

// ExecutionMode は使用中の画像ホストと生成プロバイダーの組み合わせです。
func (p *VideoPipeline) ExecutionMode() string {
	return p.deps.Host.Name() + " / " + p.deps.Generator.Name()
}

// begin は実行開始の可否を判定し、Uploading に遷移させます。
func (p *VideoPipeline) begin() (string, error) {
	p.mu.Lock()
	if !p.state.CanTransition(domain.StateUploading) {
		p.mu.Unlock()
		return "", domain.ErrBusy
	}
	p.clearLocked()
	p.runID = p.newRunID()
	p.state = domain.StateUploading
	runID := p.runID
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(snap)
	return runID, nil
}

// advance は状態を next に進め、update があれば同じロックの中で適用します。
func (p *VideoPipeline) advance(next domain.State, update func()) {
	p.mu.Lock()
	if !p.state.CanTransition(next) {
		cur := p.state
		p.mu.Unlock()
		slog.Error("Invalid state transition ignored", "from", cur, "to", next)
		return
	}
	p.state = next
	if update != nil {
		update()
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(snap)
}

func (p *VideoPipeline) fail(err error) {
	p.advance(domain.StateFailed, func() {
		p.lastErr = err.Error()
		p.artifact = nil
	})
}

func (p *VideoPipeline) clearLocked() {
	p.runID = ""
	p.imageURL = ""
	p.videoURL = ""
	p.artifact = nil
	p.lastErr = ""
}

func (p *VideoPipeline) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		RunID:    p.runID,
		State:    p.state,
		Progress: p.state.Progress(),
		ImageURL: p.imageURL,
		VideoURL: p.videoURL,
		Error:    p.lastErr,
	}
	if p.artifact != nil {
		snap.Artifact = &domain.ArtifactInfo{
			Filename:  p.artifact.Filename,
			Size:      p.artifact.Size(),
			CreatedAt: p.artifact.CreatedAt,
		}
	}
	return snap
}

func (p *VideoPipeline) publish(snap domain.Snapshot) {
	if p.deps.Observer != nil {
		p.deps.Observer.Publish(snap)
	}
}
