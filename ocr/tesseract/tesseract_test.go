package tesseract

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/ocrgrep/ocr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
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

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	path := writeTextImage(t, t.TempDir(), "greeting.png", "Hello World")
	in := ocr.InputFromFile(path, ocr.WithLanguages("eng"), ocr.WithDPI(300))

	res, err := NewEngine().Recognize(context.Background(), in)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if res.InputID != "greeting.png" {
		t.Fatalf("unexpected input id: %s", res.InputID)
	}
	got := strings.ToLower(res.PlainText)
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") {
		t.Fatalf("unexpected OCR output: %q", res.PlainText)
	}
	if len(res.Blocks) == 0 || len(res.Blocks[0].Lines) == 0 {
		t.Fatal("expected structured blocks")
	}
	if res.Language != "eng" {
		t.Fatalf("unexpected language: %s", res.Language)
	}
}

func TestEngineRecognizeMissingFile(t *testing.T) {
	ensureTesseractAvailable(t)

	in := ocr.InputFromFile(filepath.Join(t.TempDir(), "absent.png"))
	_, err := NewEngine().Recognize(context.Background(), in)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var recErr *ocr.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected *ocr.RecognitionError, got %T: %v", err, err)
	}
	if recErr.ID != "absent.png" {
		t.Fatalf("unexpected id: %s", recErr.ID)
	}
}

func TestEngineRegisteredAsDefault(t *testing.T) {
	if got := ocr.DefaultEngine().Name(); got != "tesseract" {
		t.Fatalf("default engine = %q, expected tesseract", got)
	}
}

func TestMergeBounds(t *testing.T) {
	words := []ocr.TextWord{
		{Bounds: ocr.Region{X: 10, Y: 20, Width: 30, Height: 10}},
		{Bounds: ocr.Region{X: 50, Y: 18, Width: 40, Height: 14}},
	}
	merged := mergeBounds(words)
	expected := ocr.Region{X: 10, Y: 18, Width: 80, Height: 14}
	if merged != expected {
		t.Fatalf("mergeBounds = %+v, expected %+v", merged, expected)
	}
	if got := mergeBounds(nil); got != (ocr.Region{}) {
		t.Fatalf("mergeBounds(nil) = %+v, expected zero region", got)
	}
}

func TestFirstLanguage(t *testing.T) {
	if got := firstLanguage(nil); got != "" {
		t.Fatalf("firstLanguage(nil) = %q", got)
	}
	if got := firstLanguage([]string{"ind", "eng"}); got != "ind" {
		t.Fatalf("firstLanguage = %q, expected ind", got)
	}
}
