package config

import (
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/joho/godotenv"
)

const (
	// SignedURLExpiration はアーカイブした動画の署名付きURLの有効期限です。
	SignedURLExpiration = 24 * time.Hour
	DefaultImageHost    = HostImgBB
	DefaultProvider     = ProviderReplicate

	DefaultImgBBEndpoint     = "https://api.imgbb.com/1/upload"
	DefaultPostImageEndpoint = "https://postimg.cc/json"
	DefaultReplicateBaseURL  = "https://api.replicate.com/v1"
	DefaultReplicateModel    = "minimax/hailuo-02-fast"
	DefaultArkModel          = "doubao-seedance-1-0-lite-i2v-250428"
	DefaultGeminiModel       = "gemini-2.5-flash"

	// DefaultUploadTimeout は画像アップロード1回あたりのタイムアウトです。
	DefaultUploadTimeout = 30 * time.Second
	// DefaultProbeTimeout はホスト済み画像の HEAD プローブのタイムアウトです。
	DefaultProbeTimeout = 5 * time.Second
	// DefaultDownloadTimeout は動画ダウンロードのタイムアウト上限です。
	DefaultDownloadTimeout = 120 * time.Second
	// DefaultRequestTimeout は生成サービスへの個々の HTTP 呼び出しのタイムアウトです。
	// 生成ジョブ全体の待ち時間には上限を設けません。
	DefaultRequestTimeout = 90 * time.Second
	DefaultPollInterval   = 5 * time.Second
	// DefaultMaxVideoBytes はダウンロードする動画の上限サイズです。
	DefaultMaxVideoBytes = 256 << 20
	// DefaultMaxImageBytes はアップロードを受け付ける画像の上限サイズです。
	DefaultMaxImageBytes = 20 << 20
	// DefaultMaxImagePixels はデコードを許可する画像の総ピクセル数の上限です。
	DefaultMaxImagePixels = 40_000_000
	DefaultHTTPTimeout    = 30 * time.Second
)

const (
	HostImgBB     = "imgbb"
	HostPostImage = "postimage"

	ProviderReplicate = "replicate"
	ProviderArk       = "ark"
)

// Config は環境変数から読み込まれたアプリケーションの全設定を保持します。
type Config struct {
	ServiceURL      string `validate:"required,url"`
	Port            string `validate:"required,numeric"`
	TemplateDir     string `validate:"required"`
	ShutdownTimeout time.Duration

	// Image hosting
	ImageHost         string        `validate:"oneof=imgbb postimage"`
	ImgBBAPIKey       string        `validate:"required_if=ImageHost imgbb"`
	ImgBBEndpoint     string        `validate:"omitempty,url"`
	PostImageEndpoint string        `validate:"omitempty,url"`
	UploadTimeout     time.Duration `validate:"gt=0"`
	MaxImageBytes     int64         `validate:"gt=0"`
	MaxImagePixels    int64         `validate:"gt=0"`

	// Video generation
	VideoProvider     string `validate:"oneof=replicate ark"`
	ReplicateAPIToken string // 空の場合はリクエストごとにユーザーが入力します
	ReplicateBaseURL  string `validate:"omitempty,url"`
	ReplicateModel    string `validate:"required_if=VideoProvider replicate"`
	ArkAPIKey         string
	ArkModel          string        `validate:"required_if=VideoProvider ark"`
	ProbeImage        bool          // 生成前にホスト済み画像へ HEAD プローブを行うか
	ProbeTimeout      time.Duration `validate:"gt=0"`
	RequestTimeout    time.Duration `validate:"gt=0"`
	PollInterval      time.Duration `validate:"gt=0"`

	// Video retrieval
	DownloadTimeout time.Duration `validate:"gt=0"`
	MaxVideoBytes   int64         `validate:"gt=0"`

	// Prompt translation (GEMINI_API_KEY が空なら無効)
	GeminiAPIKey string
	GeminiModel  string

	// Archive & notification
	GCSBucket           string // 完成動画を保存するバケット (空ならアーカイブしない)
	BaseOutputDir       string
	SignedURLExpiration time.Duration
	SlackWebhookURL     string
}

// LoadConfig は環境変数から設定を読み込み、Config 構造体を生成します。
// 本番以外では .env ファイルがあれば先に読み込みます。
func LoadConfig() *Config {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err == nil {
			slog.Info("Loaded .env file")
		}
	}

	// 実行環境（Cloud Run, ko）に応じたパスの解決
	baseDir := "."
	if os.Getenv("KO_DATA_PATH") != "" || os.Getenv("K_SERVICE") != "" {
		baseDir = "/app"
	}

	return &Config{
		ServiceURL:      getEnv("SERVICE_URL", "http://localhost:8080"),
		Port:            getEnv("PORT", "8080"),
		TemplateDir:     getEnv("TEMPLATE_DIR", path.Join(baseDir, "templates")),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),

		ImageHost:         getEnv("IMAGE_HOST", DefaultImageHost),
		ImgBBAPIKey:       getEnv("IMGBB_API_KEY", ""),
		ImgBBEndpoint:     getEnv("IMGBB_ENDPOINT", DefaultImgBBEndpoint),
		PostImageEndpoint: getEnv("POSTIMAGE_ENDPOINT", DefaultPostImageEndpoint),
		UploadTimeout:     getDurationEnv("UPLOAD_TIMEOUT", DefaultUploadTimeout),
		MaxImageBytes:     getInt64Env("MAX_IMAGE_BYTES", DefaultMaxImageBytes),
		MaxImagePixels:    getInt64Env("MAX_IMAGE_PIXELS", DefaultMaxImagePixels),

		VideoProvider:     getEnv("VIDEO_PROVIDER", DefaultProvider),
		ReplicateAPIToken: getEnv("REPLICATE_API_TOKEN", ""),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", DefaultReplicateBaseURL),
		ReplicateModel:    getEnv("REPLICATE_MODEL", DefaultReplicateModel),
		ArkAPIKey:         getEnv("ARK_API_KEY", ""),
		ArkModel:          getEnv("ARK_MODEL", DefaultArkModel),
		ProbeImage:        getBoolEnv("PROBE_IMAGE", true),
		ProbeTimeout:      getDurationEnv("PROBE_TIMEOUT", DefaultProbeTimeout),
		RequestTimeout:    getDurationEnv("REQUEST_TIMEOUT", DefaultRequestTimeout),
		PollInterval:      getDurationEnv("POLL_INTERVAL", DefaultPollInterval),

		DownloadTimeout: getDurationEnv("DOWNLOAD_TIMEOUT", DefaultDownloadTimeout),
		MaxVideoBytes:   getInt64Env("MAX_VIDEO_BYTES", DefaultMaxVideoBytes),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", DefaultGeminiModel),

		GCSBucket:           getEnv("GCS_VIDEO_BUCKET", ""),
		BaseOutputDir:       getEnv("BASE_OUTPUT_DIR", "output"),
		SignedURLExpiration: SignedURLExpiration,
		SlackWebhookURL:     getEnv("SLACK_WEBHOOK_URL", ""),
	}
}

// ProviderCredential は選択中の生成プロバイダー用に設定された API キーを返します。
func (c Config) ProviderCredential() string {
	if c.VideoProvider == ProviderArk {
		return c.ArkAPIKey
	}
	return c.ReplicateAPIToken
}

// RequiresUserCredential はサーバー側にトークンが無く、ユーザー入力が必要な場合に true を返します。
func (c Config) RequiresUserCredential() bool {
	return c.ProviderCredential() == ""
}
