package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpload は画像ホスティングへのアップロード失敗を表します。
	ErrUpload = errors.New("image upload failed")
	// ErrImageUnreachable はホストされた画像URLに到達できないことを表します。
	ErrImageUnreachable = errors.New("hosted image is unreachable")
	// ErrGeneration は動画生成サービスの失敗を表します。
	ErrGeneration = errors.New("video generation failed")
	// ErrDownload は生成された動画のダウンロード失敗を表します。
	ErrDownload = errors.New("video download failed")
	// ErrInvalidRequest は画像またはプロンプトが欠けた生成指示を表します。
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrBusy は別の実行が進行中であることを表します。
	ErrBusy = errors.New("a pipeline run is already in progress")
)

// StageError は失敗したステージと原因を保持します。
// errors.Is で Kind (ErrUpload など) と原因の両方に一致します。
type StageError struct {
	Stage      State
	Kind       error
	StatusCode int
	Err        error
}

// NewStageError は StageError を生成します。statusCode が不明な場合は 0 を渡します。
func NewStageError(stage State, kind error, statusCode int, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, StatusCode: statusCode, Err: err}
}

func (e *StageError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StageOf は err に含まれる StageError のステージを返します。
func StageOf(err error) (State, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return StateIdle, false
}
