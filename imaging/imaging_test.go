package imaging

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

func TestIsSupported(t *testing.T) {
	cases := []struct {
		name     string
		file     string
		expected bool
	}{
		{name: "jpg", file: "photo.jpg", expected: true},
		{name: "jpeg", file: "photo.jpeg", expected: true},
		{name: "png", file: "scan.png", expected: true},
		{name: "tiff", file: "scan.tiff", expected: true},
		{name: "tif", file: "scan.tif", expected: true},
		{name: "upper case", file: "PHOTO.PNG", expected: true},
		{name: "mixed case", file: "Photo.JpG", expected: true},
		{name: "text", file: "notes.txt", expected: false},
		{name: "pdf", file: "doc.pdf", expected: false},
		{name: "no extension", file: "README", expected: false},
		{name: "extension only suffix", file: "punggung", expected: false},
		{name: "bare extension name", file: ".png", expected: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSupported(tc.file); got != tc.expected {
				t.Fatalf("IsSupported(%q) = %v, expected %v", tc.file, got, tc.expected)
			}
		})
	}
}

func TestSupportedExtensionsCopy(t *testing.T) {
	exts := SupportedExtensions()
	if len(exts) != 5 {
		t.Fatalf("expected 5 extensions, got %v", exts)
	}
	exts[0] = ".exe"
	if SupportedExtensions()[0] != ".jpg" {
		t.Fatal("SupportedExtensions exposed internal slice")
	}
}

func writeImage(t *testing.T, name string, encode func(*os.File, image.Image) error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	if err := encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return path
}

func TestInspect(t *testing.T) {
	cases := []struct {
		name   string
		file   string
		format string
		encode func(*os.File, image.Image) error
	}{
		{name: "png", file: "a.png", format: "png", encode: func(f *os.File, img image.Image) error {
			return png.Encode(f, img)
		}},
		{name: "jpeg", file: "a.jpg", format: "jpeg", encode: func(f *os.File, img image.Image) error {
			return jpeg.Encode(f, img, nil)
		}},
		{name: "tiff", file: "a.tiff", format: "tiff", encode: func(f *os.File, img image.Image) error {
			return tiff.Encode(f, img, nil)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeImage(t, tc.file, tc.encode)
			info, err := Inspect(path)
			if err != nil {
				t.Fatalf("Inspect: %v", err)
			}
			if info.Format != tc.format {
				t.Errorf("format = %q, expected %q", info.Format, tc.format)
			}
			if info.Width != 12 || info.Height != 8 {
				t.Errorf("dimensions = %d x %d, expected 12 x 8", info.Width, info.Height)
			}
		})
	}
}

func TestInspectRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.png")
	if err := os.WriteFile(path, []byte("this is not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Inspect(path); err == nil {
		t.Fatal("expected error for non-image content")
	}
}

func TestInspectMissingFile(t *testing.T) {
	if _, err := Inspect(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
		ok            bool
	}{
		{name: "typical scan", width: 2480, height: 3508, ok: true},
		{name: "square at pixel limit", width: 8192, height: 8192, ok: true},
		{name: "zero width", width: 0, height: 100, ok: false},
		{name: "negative height", width: 100, height: -1, ok: false},
		{name: "dimension over limit", width: 40000, height: 10, ok: false},
		{name: "pixel count over limit", width: 9000, height: 9000, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateBounds(tc.width, tc.height)
			if tc.ok && err != nil {
				t.Fatalf("validateBounds(%d, %d) = %v, expected nil", tc.width, tc.height, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("validateBounds(%d, %d) accepted invalid bounds", tc.width, tc.height)
			}
		})
	}
}
