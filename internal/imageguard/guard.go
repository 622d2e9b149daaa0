// Package imageguard validates and normalizes product images before they are
// stored.
package imageguard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/ikkim/gadgetshop-backend/config"
)

var (
	ErrImageTooLarge = errors.New("size exceeds 3MB")
	ErrInvalidImage  = errors.New("file is not a supported image")
	ErrMinResolution = errors.New("image resolution is below the minimum")
	ErrTooManyPixels = errors.New("image dimensions are too large")
)

// Result is an accepted image, possibly re-encoded.
type Result struct {
	Data        []byte
	Width       int
	Height      int
	Format      string // jpeg, png, gif
	ContentType string
	Ext         string
	Resized     bool
}

// Validate applies the upload rules in order: byte size, declared dimensions,
// decodability, minimum resolution, then downscaling. Oversize images are resized to the
// optimal resolution and re-encoded as RGB JPEG; all others pass through
// unchanged.
func Validate(data []byte) (*Result, error) {
	if len(data) > config.MaxImageSize {
		return nil, ErrImageTooLarge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > config.MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if height < config.MinResolution.Height && width < config.MinResolution.Width {
		return nil, fmt.Errorf("%w: got %dx%d, need at least %dx%d", ErrMinResolution,
			width, height, config.MinResolution.Width, config.MinResolution.Height)
	}

	if height > config.MaxResolution.Height && width > config.MaxResolution.Width {
		return downscale(img)
	}

	return &Result{
		Data:        data,
		Width:       width,
		Height:      height,
		Format:      format,
		ContentType: "image/" + format,
		Ext:         extension(format),
	}, nil
}

func downscale(img image.Image) (*Result, error) {
	target := config.OptimalResolution
	resized := imaging.Resize(img, target.Width, target.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(config.ImageJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}

	return &Result{
		Data:        buf.Bytes(),
		Width:       target.Width,
		Height:      target.Height,
		Format:      "jpeg",
		ContentType: "image/jpeg",
		Ext:         ".jpg",
		Resized:     true,
	}, nil
}

func extension(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	}
	return "." + format
}
