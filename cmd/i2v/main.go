// i2v は対話形式で画像とプロンプトを受け取り、生成した動画をカレントディレクトリに保存するCLIです。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"ap-video-web/internal/builder"
	"ap-video-web/internal/config"
	"ap-video-web/internal/domain"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	if err := config.ValidateEssentialConfig(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	container, err := builder.BuildContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build application container: %w", err)
	}
	defer container.Close()

	req, err := askRequest(container.Pipeline.RequiresCredential(), cfg.MaxImageBytes)
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go container.Events.Run(hubCtx)
	progress := make(chan []byte, 16)
	if container.Events.Subscribe(progress) {
		defer container.Events.Unsubscribe(progress)
		go printProgress(hubCtx, progress)
	}

	artifact, err := container.Pipeline.Run(ctx, req)
	if err != nil {
		return err
	}

	if err := os.WriteFile(artifact.Filename, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}
	saved := artifact.Filename
	if abs, err := filepath.Abs(artifact.Filename); err == nil {
		saved = abs
	}
	fmt.Printf("✅ 動画を保存しました: %s (%d bytes)\n", saved, artifact.Size())
	return nil
}

// askRequest は画像パス、プロンプト、必要であれば API トークンを対話的に尋ねます。
func askRequest(needsToken bool, maxImageBytes int64) (domain.GenerationRequest, error) {
	var imagePath string
	if err := survey.AskOne(&survey.Input{
		Message: "画像ファイルのパス:",
		Help:    "PNG / JPEG / GIF / WebP",
	}, &imagePath, survey.WithValidator(survey.Required), survey.WithValidator(imageFileValidator(maxImageBytes))); err != nil {
		return domain.GenerationRequest{}, err
	}

	image, err := os.ReadFile(strings.TrimSpace(imagePath))
	if err != nil {
		return domain.GenerationRequest{}, fmt.Errorf("failed to read image: %w", err)
	}

	var prompt string
	if err := survey.AskOne(&survey.Input{
		Message: "プロンプト:",
		Default: domain.DefaultPrompt,
	}, &prompt, survey.WithValidator(survey.Required)); err != nil {
		return domain.GenerationRequest{}, err
	}

	var token string
	if needsToken {
		if err := survey.AskOne(&survey.Password{
			Message: "API トークン:",
		}, &token, survey.WithValidator(survey.Required)); err != nil {
			return domain.GenerationRequest{}, err
		}
	}

	return domain.GenerationRequest{
		Image:      image,
		Prompt:     strings.TrimSpace(prompt),
		Credential: strings.TrimSpace(token),
	}, nil
}

func imageFileValidator(maxBytes int64) survey.Validator {
	return func(ans any) error {
		p, _ := ans.(string)
		info, err := os.Stat(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("ファイルが見つかりません: %s", p)
		}
		if info.IsDir() {
			return fmt.Errorf("%s はディレクトリです", p)
		}
		if info.Size() > maxBytes {
			return fmt.Errorf("画像サイズが上限 (%d bytes) を超えています", maxBytes)
		}
		return nil
	}
}

func printProgress(ctx context.Context, ch <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			var snap struct {
				State    string `json:"state"`
				Progress int    `json:"progress"`
			}
			if err := json.Unmarshal(msg, &snap); err != nil {
				continue
			}
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", snap.Progress, snap.State)
		}
	}
}
