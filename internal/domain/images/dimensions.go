package images

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxDecodePixels bounds the full decode; larger images get no dimensions.
const maxDecodePixels = 64 << 20

// decodeDimensions reports width and height only when data fully decodes as
// a raster image. A readable header over a corrupt or truncated body yields
// nil, nil, as does anything else that fails to decode.
func decodeDimensions(data []byte) (width, height *int) {
	defer func() {
		if recover() != nil {
			width, height = nil, nil
		}
	}()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxDecodePixels {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	return &w, &h
}
