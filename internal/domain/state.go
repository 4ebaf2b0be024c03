package domain

import "time"

// State はパイプラインの進行状態です。
type State int

const (
	StateIdle State = iota
	StateUploading
	StateGenerating
	StateDownloading
	StateComplete
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateUploading:   "uploading",
	StateGenerating:  "generating",
	StateDownloading: "downloading",
	StateComplete:    "complete",
	StateFailed:      "failed",
}

// progress は画面のプログレスバーに表示する割合です。
var progress = map[State]int{
	StateIdle:        0,
	StateUploading:   20,
	StateGenerating:  60,
	StateDownloading: 80,
	StateComplete:    100,
	StateFailed:      0,
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText は JSON やログでの表現を状態名にします。
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Progress は状態に対応する進捗率 (0-100) を返します。
func (s State) Progress() int {
	return progress[s]
}

// InProgress は実行中のステージであれば true を返します。
func (s State) InProgress() bool {
	return s == StateUploading || s == StateGenerating || s == StateDownloading
}

// CanStart は新しい実行を開始できる状態かどうかを返します。
func (s State) CanStart() bool {
	return s == StateIdle || s == StateComplete || s == StateFailed
}

// CanTransition は s から next への遷移が許されるかを判定します。
// 遷移は前進のみで、Failed は実行中のどのステージからも到達できます。
// Complete/Failed から Idle への遷移はリセット操作でのみ行われます。
func (s State) CanTransition(next State) bool {
	switch next {
	case StateUploading:
		return s.CanStart()
	case StateGenerating:
		return s == StateUploading
	case StateDownloading:
		return s == StateGenerating
	case StateComplete:
		return s == StateDownloading
	case StateFailed:
		return s.InProgress()
	case StateIdle:
		return s == StateIdle || s == StateComplete || s == StateFailed
	}
	return false
}

// ArtifactInfo は画面表示用の動画メタデータです。
type ArtifactInfo struct {
	Filename  string    `json:"filename"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot はプレゼンテーション層に渡す読み取り専用の状態です。
type Snapshot struct {
	RunID    string        `json:"run_id,omitempty"`
	State    State         `json:"state"`
	Progress int           `json:"progress"`
	ImageURL string        `json:"image_url,omitempty"`
	VideoURL string        `json:"video_url,omitempty"`
	Artifact *ArtifactInfo `json:"artifact,omitempty"`
	Error    string        `json:"error,omitempty"`
}
