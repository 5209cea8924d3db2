package ocr

import (
	"path/filepath"
	"strings"
)

// InputOption mutates an OCR input before submission.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromFile builds an OCR input for an image file. The ID is the file's
// base name so downstream results correlate with directory entries, and the
// format is derived from the extension.
func InputFromFile(path string, opts ...InputOption) Input {
	in := Input{
		ID:     filepath.Base(path),
		Path:   path,
		Format: FormatForExtension(filepath.Ext(path)),
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

// FormatForExtension maps a file extension (with leading dot, any case) to the
// corresponding image format. Unknown extensions yield an empty format, which
// engines treat as "sniff the file".
func FormatForExtension(ext string) ImageFormat {
	switch strings.ToLower(ext) {
	case ".png":
		return ImageFormatPNG
	case ".jpg", ".jpeg":
		return ImageFormatJPEG
	case ".tif", ".tiff":
		return ImageFormatTIFF
	}
	return ""
}
