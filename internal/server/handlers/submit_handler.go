package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ap-video-web/internal/config"
	"ap-video-web/internal/domain"
)

// multipartOverhead はフォームのテキスト項目と境界文字列の分として画像上限に上乗せする量です。
const multipartOverhead = 1 << 20

// HandleSubmit は画像とプロンプトのフォーム送信を受け取り、パイプラインを同期的に実行します。
// 成功時はトップページへリダイレクトし、結果はそこで表示します。
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxImageBytes+multipartOverhead)

	if err := r.ParseMultipartForm(h.cfg.MaxImageBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderSubmitError(w, http.StatusRequestEntityTooLarge, "", "画像サイズが上限を超えています", "")
			return
		}
		slog.WarnContext(ctx, "フォームの解析に失敗しました", "error", err)
		h.renderSubmitError(w, http.StatusBadRequest, "", "リクエストの解析に失敗しました", "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	prompt := h.sanitizePrompt(r.FormValue("prompt"))

	image, err := readImage(r, h.cfg.MaxImageBytes)
	if err != nil {
		slog.WarnContext(ctx, "画像の読み込みに失敗しました", "error", err)
		h.renderSubmitError(w, http.StatusBadRequest, prompt, "画像ファイルを選択してください", "")
		return
	}

	req := domain.GenerationRequest{
		Image:      image,
		Prompt:     prompt,
		Credential: strings.TrimSpace(r.FormValue("api_token")),
	}
	if err := config.Validator().Struct(req); err != nil {
		slog.WarnContext(ctx, "入力値が不正です", "error", err)
		h.renderSubmitError(w, http.StatusBadRequest, prompt, "画像とプロンプトは必須項目です", "")
		return
	}
	if h.service.RequiresCredential() && req.Credential == "" {
		h.renderSubmitError(w, http.StatusBadRequest, prompt, "API トークンを入力してください", "")
		return
	}

	// ブラウザの切断やリロードで生成を中断させず、リモートの応答まで待ちます。
	artifact, err := h.service.Run(context.WithoutCancel(ctx), req)
	if err != nil {
		status, stage := classifyRunError(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "動画の生成に失敗しました", "error", err)
		}
		h.renderSubmitError(w, status, prompt, err.Error(), stage)
		return
	}

	slog.InfoContext(ctx, "動画の生成が完了しました", "filename", artifact.Filename, "bytes", artifact.Size())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderSubmitError(w http.ResponseWriter, status int, prompt, message, stage string) {
	view := h.newIndexView(prompt)
	view.Message = message
	view.FailedStage = stage
	h.render(w, status, "index.html", "Image to Video", view)
}

// readImage はフォームの "image" ファイルを読み込みます。上限を超えた場合はエラーです。
func readImage(r *http.Request, limit int64) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New("image exceeds the size limit")
	}
	return data, nil
}

// classifyRunError はパイプラインのエラーを HTTP ステータスと失敗ステージ名に変換します。
func classifyRunError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, ""
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, ""
	}
	if stage, ok := domain.StageOf(err); ok {
		return http.StatusBadGateway, stage.String()
	}
	return http.StatusInternalServerError, ""
}
