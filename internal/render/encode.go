package render

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

type ImageFormat string

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	jpegQuality = 98
)

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// ParseImageFormat validates an image format name, case-insensitive.
func ParseImageFormat(name string) (ImageFormat, error) {
	f := ImageFormat(strings.ToLower(name))
	if _, ok := validImageFormats[f]; !ok {
		return "", fmt.Errorf("invalid image format: %s", name)
	}
	return f, nil
}

// ContentType returns the MIME type of the format.
func (f ImageFormat) ContentType() string {
	if f == ImageJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	default:
		return fmt.Errorf("invalid image format: %s", format)
	}
}
