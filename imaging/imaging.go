// Package imaging decides which directory entries are scannable images and
// validates image headers before they are handed to an OCR engine.
package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// supportedExtensions lists the image formats the scanner accepts, in the
// order shown to users. Matching is case-insensitive.
var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif"}

var supported = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
}

// SupportedExtensions returns the accepted extensions in display order.
func SupportedExtensions() []string {
	return append([]string(nil), supportedExtensions...)
}

// IsSupported reports whether the file name carries a supported image
// extension. The extension is compared case-insensitively, so PHOTO.PNG and
// photo.png are both accepted.
func IsSupported(name string) bool {
	return supported[strings.ToLower(filepath.Ext(name))]
}

const (
	// maxImageDimension caps width/height to avoid excessive allocations when
	// a damaged file header lies about the image size.
	maxImageDimension = 32768
	// maxImagePixels bounds the total pixel count (roughly 64MP) which keeps
	// decoded RGBA buffers under 256 MB.
	maxImagePixels int64 = 64 * 1024 * 1024
)

// Info describes a probed image header.
type Info struct {
	Format string
	Width  int
	Height int
}

// Inspect probes an image header without decoding pixel data and validates
// the declared dimensions. It catches unreadable, truncated and absurdly
// sized files before an OCR engine spends time on them.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}
	if err := validateBounds(cfg.Width, cfg.Height); err != nil {
		return Info{}, err
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func validateBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image bounds invalid (%d x %d)", width, height)
	}
	if width > maxImageDimension || height > maxImageDimension {
		return fmt.Errorf("image dimension exceeds limit (%d x %d)", width, height)
	}
	pixels := int64(width) * int64(height)
	if pixels > maxImagePixels {
		return fmt.Errorf("image pixel count %d exceeds limit %d", pixels, maxImagePixels)
	}
	return nil
}
