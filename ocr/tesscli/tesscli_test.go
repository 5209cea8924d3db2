package tesscli

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/ocrgrep/hocr"
	"github.com/wudi/ocrgrep/ocr"
)

func TestBuildArgs(t *testing.T) {
	cases := []struct {
		name     string
		input    ocr.Input
		expected []string
	}{
		{
			name:     "minimal",
			input:    ocr.Input{Path: "scan.png"},
			expected: []string{"scan.png", "stdout", "hocr"},
		},
		{
			name:     "languages joined",
			input:    ocr.Input{Path: "scan.png", Languages: []string{"eng", "ind"}},
			expected: []string{"scan.png", "stdout", "-l", "eng+ind", "hocr"},
		},
		{
			name:     "dpi",
			input:    ocr.Input{Path: "scan.png", DPI: 300},
			expected: []string{"scan.png", "stdout", "--dpi", "300", "hocr"},
		},
		{
			name: "psm and oem promoted to flags",
			input: ocr.Input{Path: "scan.png", Metadata: map[string]string{
				"tessedit_pageseg_mode":    "6",
				"tessedit_ocr_engine_mode": "1",
			}},
			expected: []string{"scan.png", "stdout", "--psm", "6", "--oem", "1", "hocr"},
		},
		{
			name: "variables forwarded sorted",
			input: ocr.Input{Path: "scan.png", Metadata: map[string]string{
				"tessedit_char_whitelist": "0123456789",
				"load_system_dawg":        "0",
			}},
			expected: []string{
				"scan.png", "stdout",
				"-c", "load_system_dawg=0",
				"-c", "tessedit_char_whitelist=0123456789",
				"hocr",
			},
		},
		{
			name: "everything",
			input: ocr.Input{
				Path:      "dir/photo.jpg",
				Languages: []string{"eng"},
				DPI:       150,
				Metadata:  map[string]string{"tessedit_pageseg_mode": "3"},
			},
			expected: []string{"dir/photo.jpg", "stdout", "-l", "eng", "--dpi", "150", "--psm", "3", "hocr"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildArgs(tc.input); !reflect.DeepEqual(got, tc.expected) {
				t.Fatalf("buildArgs = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestResultFromDocument(t *testing.T) {
	doc := &hocr.Document{Pages: []hocr.Page{{
		Image: "1.png",
		BBox:  hocr.BBox{X1: 640, Y1: 480},
		Lines: []hocr.Line{
			{
				BBox: hocr.BBox{X0: 42, Y0: 40, X1: 430, Y1: 76},
				Words: []hocr.Word{
					{Text: "Selamat", BBox: hocr.BBox{X0: 42, Y0: 40, X1: 230, Y1: 76}, Confidence: 95},
					{Text: "datang", BBox: hocr.BBox{X0: 248, Y0: 40, X1: 430, Y1: 76}, Confidence: 85},
				},
			},
		},
	}}}

	res := resultFromDocument(ocr.Input{ID: "1.png", Languages: []string{"ind"}}, doc)
	if res.InputID != "1.png" {
		t.Fatalf("input id = %q", res.InputID)
	}
	if res.PlainText != "Selamat datang" {
		t.Fatalf("plain text = %q", res.PlainText)
	}
	if res.Language != "ind" {
		t.Fatalf("language = %q", res.Language)
	}
	if len(res.Blocks) != 1 || len(res.Blocks[0].Lines) != 1 {
		t.Fatalf("unexpected structure: %+v", res.Blocks)
	}
	line := res.Blocks[0].Lines[0]
	if len(line.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(line.Words))
	}
	if got := line.Words[0].Confidence; math.Abs(got-0.95) > 1e-9 {
		t.Errorf("word confidence = %v, expected 0.95", got)
	}
	if got := line.Confidence; math.Abs(got-0.90) > 1e-9 {
		t.Errorf("line confidence = %v, expected 0.90", got)
	}
	expectedBounds := ocr.Region{X: 42, Y: 40, Width: 188, Height: 36}
	if line.Words[0].Bounds != expectedBounds {
		t.Errorf("word bounds = %+v, expected %+v", line.Words[0].Bounds, expectedBounds)
	}
	if got := res.MeanConfidence(); math.Abs(got-0.90) > 1e-9 {
		t.Errorf("mean confidence = %v, expected 0.90", got)
	}
}

func TestRecognizeBinaryMissing(t *testing.T) {
	engine := NewEngine("tesseract-binary-that-does-not-exist")
	if engine.Available() {
		t.Skip("unexpectedly found a binary with a nonsense name")
	}
	_, err := engine.Recognize(context.Background(), ocr.Input{ID: "x.png", Path: "x.png"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	var recErr *ocr.RecognitionError
	if !errors.As(err, &recErr) || recErr.ID != "x.png" {
		t.Fatalf("expected wrapped recognition error, got %v", err)
	}
}

func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func writeTextImage(t *testing.T, dir, name, text string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func TestRecognizeIntegration(t *testing.T) {
	ensureTesseractAvailable(t)

	path := writeTextImage(t, t.TempDir(), "greeting.png", "Hello World")
	in := ocr.InputFromFile(path, ocr.WithLanguages("eng"), ocr.WithDPI(300))

	res, err := NewEngine("").Recognize(context.Background(), in)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	got := strings.ToLower(res.PlainText)
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") {
		t.Fatalf("unexpected OCR output: %q", res.PlainText)
	}
	if len(res.Blocks) == 0 || len(res.Blocks[0].Lines) == 0 {
		t.Fatal("expected structured blocks from hOCR")
	}
	if res.MeanConfidence() <= 0 {
		t.Fatal("expected positive mean confidence")
	}
}
