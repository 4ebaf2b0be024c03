package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ServiceURL:        "https://video.example.com",
		Port:              "8080",
		TemplateDir:       "templates",
		ImageHost:         HostImgBB,
		ImgBBAPIKey:       "imgbb-key",
		ImgBBEndpoint:     DefaultImgBBEndpoint,
		PostImageEndpoint: DefaultPostImageEndpoint,
		UploadTimeout:     DefaultUploadTimeout,
		MaxImageBytes:     DefaultMaxImageBytes,
		MaxImagePixels:    DefaultMaxImagePixels,
		VideoProvider:     ProviderReplicate,
		ReplicateAPIToken: "r8_token",
		ReplicateBaseURL:  DefaultReplicateBaseURL,
		ReplicateModel:    DefaultReplicateModel,
		ArkModel:          DefaultArkModel,
		ProbeTimeout:      DefaultProbeTimeout,
		RequestTimeout:    DefaultRequestTimeout,
		PollInterval:      DefaultPollInterval,
		DownloadTimeout:   DefaultDownloadTimeout,
		MaxVideoBytes:     DefaultMaxVideoBytes,
	}
}

func TestValidateEssentialConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "insecure service url", mutate: func(c *Config) { c.ServiceURL = "http://video.example.com" }, wantErr: "must be HTTPS"},
		{name: "unknown image host", mutate: func(c *Config) { c.ImageHost = "flickr" }, wantErr: "ImageHost"},
		{name: "imgbb without key", mutate: func(c *Config) { c.ImgBBAPIKey = "" }, wantErr: "ImgBBAPIKey"},
		{name: "postimage without key", mutate: func(c *Config) { c.ImageHost = HostPostImage; c.ImgBBAPIKey = "" }},
		{name: "unknown provider", mutate: func(c *Config) { c.VideoProvider = "sora" }, wantErr: "VideoProvider"},
		{name: "ark without model", mutate: func(c *Config) { c.VideoProvider = ProviderArk; c.ArkModel = "" }, wantErr: "ArkModel"},
		{name: "missing token is allowed", mutate: func(c *Config) { c.ReplicateAPIToken = "" }},
		{name: "zero download timeout", mutate: func(c *Config) { c.DownloadTimeout = 0 }, wantErr: "DownloadTimeout"},
		{name: "zero pixel limit", mutate: func(c *Config) { c.MaxImagePixels = 0 }, wantErr: "MaxImagePixels"},
		{name: "bad port", mutate: func(c *Config) { c.Port = "http" }, wantErr: "Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := ValidateEssentialConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateEssentialConfig() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidateEssentialConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("IMAGE_HOST", "postimage")
	t.Setenv("VIDEO_PROVIDER", "ark")
	t.Setenv("ARK_API_KEY", "ark-key")
	t.Setenv("DOWNLOAD_TIMEOUT", "45s")
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("PROBE_IMAGE", "false")
	t.Setenv("MAX_VIDEO_BYTES", "1024")

	cfg := LoadConfig()

	if cfg.ImageHost != HostPostImage || cfg.VideoProvider != ProviderArk {
		t.Errorf("host/provider = %s/%s, want postimage/ark", cfg.ImageHost, cfg.VideoProvider)
	}
	if cfg.DownloadTimeout != 45*time.Second {
		t.Errorf("DownloadTimeout = %v, want 45s", cfg.DownloadTimeout)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default %v", cfg.PollInterval, DefaultPollInterval)
	}
	if cfg.ProbeImage {
		t.Error("ProbeImage = true, want false")
	}
	if cfg.MaxVideoBytes != 1024 {
		t.Errorf("MaxVideoBytes = %d, want 1024", cfg.MaxVideoBytes)
	}
	if got := cfg.ProviderCredential(); got != "ark-key" {
		t.Errorf("ProviderCredential() = %q, want ark-key", got)
	}
	if cfg.RequiresUserCredential() {
		t.Error("RequiresUserCredential() = true, want false")
	}
}

func TestGetGCSObjectURL(t *testing.T) {
	cfg := Config{GCSBucket: "videos", BaseOutputDir: "output"}

	if got := cfg.GetGCSObjectURL(cfg.GetRunDir("run-1")); got != "gs://videos/output/run-1" {
		t.Errorf("GetGCSObjectURL() = %q", got)
	}
	if got := cfg.GetGCSObjectURL("gs://other/x.mp4"); got != "gs://other/x.mp4" {
		t.Errorf("GetGCSObjectURL() = %q, want unchanged", got)
	}
	cfg.GCSBucket = ""
	if got := cfg.GetGCSObjectURL("output/x.mp4"); got != "output/x.mp4" {
		t.Errorf("GetGCSObjectURL() = %q, want unchanged", got)
	}
}
