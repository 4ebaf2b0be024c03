package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp"
)

type ImageFormat string

const (
	JPEG ImageFormat = "jpeg"
	PNG  ImageFormat = "png"
	GIF  ImageFormat = "gif"
	WEBP ImageFormat = "webp"
)

// ErrTooManyPixels は画像ヘッダーの寸法がピクセル数の上限を超えていることを表します。
var ErrTooManyPixels = errors.New("image dimensions exceed pixel limit")

// jpegQuality は ImgBB 向けに再エンコードするときの品質です。
const jpegQuality = 95

// EncodedImage は標準的なラスター形式に正規化済みの画像です。
type EncodedImage struct {
	Data   []byte
	Format ImageFormat
}

// ContentType は MIME タイプを返します。
func (i EncodedImage) ContentType() string {
	return "image/" + string(i.Format)
}

// Filename はアップロード時に使うファイル名を返します。
func (i EncodedImage) Filename() string {
	if i.Format == JPEG {
		return "image.jpg"
	}
	return "image." + string(i.Format)
}

// DetectFormat は画像ヘッダーから形式を判定します。
func DetectFormat(data []byte) (ImageFormat, error) {
	format, _, err := inspect(data)
	return format, err
}

// inspect はヘッダーだけを読み、形式と寸法を返します。
func inspect(data []byte) (ImageFormat, image.Config, error) {
	if len(data) == 0 {
		return "", image.Config{}, fmt.Errorf("image data cannot be empty")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", image.Config{}, err
	}

	switch format {
	case "jpeg":
		return JPEG, cfg, nil
	case "png":
		return PNG, cfg, nil
	case "gif":
		return GIF, cfg, nil
	case "webp":
		return WEBP, cfg, nil
	default:
		return "", image.Config{}, fmt.Errorf("unsupported format: %s", format)
	}
}

// Normalize は画像をデコードし、target 形式 (PNG または JPEG) に再エンコードします。
// JPEG への変換では透過情報を捨てて RGB に揃えます。
// maxPixels が正の場合、ヘッダー上の幅×高さがそれを超える画像はデコードせずに拒否します。
func Normalize(data []byte, target ImageFormat, maxPixels int64) (EncodedImage, error) {
	_, cfg, err := inspect(data)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("unsupported image: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && pixels > maxPixels {
		return EncodedImage{}, fmt.Errorf("%w: %dx%d (limit %d)", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return EncodedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	switch target {
	case PNG:
		if err := png.Encode(&buf, img); err != nil {
			return EncodedImage{}, fmt.Errorf("failed to encode to PNG: %w", err)
		}
	case JPEG:
		if err := jpeg.Encode(&buf, toRGB(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
			return EncodedImage{}, fmt.Errorf("failed to encode to JPEG: %w", err)
		}
	default:
		return EncodedImage{}, fmt.Errorf("unsupported target format: %s", target)
	}

	return EncodedImage{Data: buf.Bytes(), Format: target}, nil
}

// toRGB は透過部分を白で塗りつぶした不透明画像を返します。
func toRGB(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
