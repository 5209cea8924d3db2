// Package tesscli provides an OCR engine that shells out to the tesseract
// command-line binary instead of linking the native library. It requests hOCR
// output so word geometry and confidences survive the round trip through the
// external process. Use it where a specific tesseract build is mandated or
// the gosseract-linked library misbehaves.
package tesscli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/wudi/ocrgrep/hocr"
	"github.com/wudi/ocrgrep/ocr"
)

// DefaultBinary is the executable name resolved via PATH when no explicit
// binary is configured.
const DefaultBinary = "tesseract"

// Engine implements ocr.Engine by invoking the tesseract binary once per
// image. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	binary string
}

// NewEngine constructs a command-line backed engine. An empty binary selects
// DefaultBinary.
func NewEngine(binary string) *Engine {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Engine{binary: binary}
}

func (e *Engine) Name() string { return "tesseract-cli" }

// Available reports whether the configured binary resolves on PATH.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Recognize runs the binary against the input file and parses its hOCR
// output. Failures, including non-zero exits, are wrapped in
// *ocr.RecognitionError with the binary's stderr as the cause.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	cmd := exec.CommandContext(ctx, e.binary, buildArgs(in)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return ocr.Result{}, &ocr.RecognitionError{ID: in.ID, Err: err}
	}
	doc, err := hocr.Parse(stdout.Bytes())
	if err != nil {
		return ocr.Result{}, &ocr.RecognitionError{ID: in.ID, Err: err}
	}
	return resultFromDocument(in, doc), nil
}

// buildArgs assembles the invocation: image to stdout, language list joined
// with "+", the PSM and OEM variables promoted to their native flags (they
// must be set before engine init, which -c does not guarantee), remaining
// variables forwarded with -c in sorted order, and the hocr config last.
func buildArgs(in ocr.Input) []string {
	args := []string{in.Path, "stdout"}
	if len(in.Languages) > 0 {
		args = append(args, "-l", strings.Join(in.Languages, "+"))
	}
	if in.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(in.DPI))
	}
	var psm, oem string
	var vars []string
	for k, v := range in.Metadata {
		switch k {
		case ocr.TesseractPageSegMode:
			psm = v
		case ocr.TesseractEngineMode:
			oem = v
		default:
			vars = append(vars, k+"="+v)
		}
	}
	if psm != "" {
		args = append(args, "--psm", psm)
	}
	if oem != "" {
		args = append(args, "--oem", oem)
	}
	sort.Strings(vars)
	for _, kv := range vars {
		args = append(args, "-c", kv)
	}
	return append(args, "hocr")
}

func resultFromDocument(in ocr.Input, doc *hocr.Document) ocr.Result {
	blocks := make([]ocr.TextBlock, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		lines := make([]ocr.TextLine, 0, len(page.Lines))
		var sum float64
		var count int
		for _, l := range page.Lines {
			words := make([]ocr.TextWord, 0, len(l.Words))
			var lineSum float64
			for _, w := range l.Words {
				conf := w.Confidence / 100.0
				lineSum += conf
				words = append(words, ocr.TextWord{
					Text:       w.Text,
					Bounds:     regionFromBBox(w.BBox),
					Confidence: conf,
				})
			}
			lineConf := 0.0
			if len(words) > 0 {
				lineConf = lineSum / float64(len(words))
			}
			sum += lineSum
			count += len(words)
			lines = append(lines, ocr.TextLine{
				Text:       l.Text(),
				Bounds:     regionFromBBox(l.BBox),
				Words:      words,
				Confidence: lineConf,
			})
		}
		blockConf := 0.0
		if count > 0 {
			blockConf = sum / float64(count)
		}
		blocks = append(blocks, ocr.TextBlock{
			Text:       pageText(page),
			Bounds:     regionFromBBox(page.BBox),
			Lines:      lines,
			Confidence: blockConf,
		})
	}
	return ocr.Result{
		InputID:   in.ID,
		PlainText: doc.PlainText(),
		Blocks:    blocks,
		Language:  firstLanguage(in.Languages),
	}
}

func pageText(page hocr.Page) string {
	lines := make([]string, len(page.Lines))
	for i, l := range page.Lines {
		lines[i] = l.Text()
	}
	return strings.Join(lines, "\n")
}

func regionFromBBox(b hocr.BBox) ocr.Region {
	return ocr.Region{
		X:      float64(b.X0),
		Y:      float64(b.Y0),
		Width:  float64(b.Width()),
		Height: float64(b.Height()),
	}
}

func firstLanguage(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}
