package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 128})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to create test PNG: %v", err)
	}
	return buf.Bytes()
}

// pngWithHeaderSize は 1x1 の PNG の IHDR を書き換え、ヘッダー上の寸法だけを w x h にします。
func pngWithHeaderSize(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := testPNG(t, 1, 1)
	// signature(8) + length(4) + "IHDR"(4) の直後に幅と高さが続きます。
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDetectFormat(t *testing.T) {
	var gifBuf bytes.Buffer
	if err := gif.Encode(&gifBuf, image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White}), nil); err != nil {
		t.Fatalf("Failed to create test GIF: %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		want    ImageFormat
		wantErr bool
	}{
		{name: "png", data: testPNG(t, 8, 8), want: PNG},
		{name: "gif", data: gifBuf.Bytes(), want: GIF},
		{name: "empty data should fail", data: []byte{}, wantErr: true},
		{name: "nil data should fail", data: nil, wantErr: true},
		{name: "invalid image data should fail", data: []byte{0x00, 0x01, 0x02}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	src := testPNG(t, 16, 12)

	t.Run("PNG to JPEG", func(t *testing.T) {
		out, err := Normalize(src, JPEG, 0)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if out.ContentType() != "image/jpeg" || out.Filename() != "image.jpg" {
			t.Errorf("got %s %s, want image/jpeg image.jpg", out.ContentType(), out.Filename())
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
		if err != nil {
			t.Fatalf("output is not decodable: %v", err)
		}
		if format != "jpeg" || cfg.Width != 16 || cfg.Height != 12 {
			t.Errorf("decoded %s %dx%d, want jpeg 16x12", format, cfg.Width, cfg.Height)
		}
	})

	t.Run("PNG to PNG", func(t *testing.T) {
		out, err := Normalize(src, PNG, 0)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if got, _ := DetectFormat(out.Data); got != PNG {
			t.Errorf("format = %q, want png", got)
		}
	})

	t.Run("unsupported target", func(t *testing.T) {
		if _, err := Normalize(src, GIF, 0); err == nil {
			t.Error("Normalize() error = nil, want error")
		}
	})

	t.Run("garbage input", func(t *testing.T) {
		if _, err := Normalize([]byte("not an image"), PNG, 0); err == nil {
			t.Error("Normalize() error = nil, want error")
		}
	})
}

func TestNormalize_PixelLimit(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		maxPixels int64
		wantErr   error
	}{
		{name: "within limit", data: testPNG(t, 16, 12), maxPixels: 16 * 12},
		{name: "no limit", data: testPNG(t, 16, 12), maxPixels: 0},
		{name: "one pixel over", data: testPNG(t, 16, 12), maxPixels: 16*12 - 1, wantErr: ErrTooManyPixels},
		{name: "oversized header is rejected before decode", data: pngWithHeaderSize(t, 100_000, 100_000), maxPixels: 40_000_000, wantErr: ErrTooManyPixels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.data, JPEG, tt.maxPixels)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Normalize() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
