// Package hocr parses the hOCR documents produced by the tesseract command
// line. Only the element classes the scanner consumes are modeled: pages,
// lines and words, each with its bounding box and, for words, the recognition
// confidence.
package hocr

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// BBox is a pixel rectangle with the origin in the image's upper-left corner.
type BBox struct {
	X0, Y0, X1, Y1 int
}

func (b BBox) Width() int  { return b.X1 - b.X0 }
func (b BBox) Height() int { return b.Y1 - b.Y0 }

// Word is a recognized token (class ocrx_word).
type Word struct {
	Text       string
	BBox       BBox
	Confidence float64 // x_wconf property, 0-100
}

// Line groups words sharing a baseline (class ocr_line and its variants).
type Line struct {
	BBox  BBox
	Words []Word
}

// Text joins the line's word texts with single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, word := range l.Words {
		parts[i] = word.Text
	}
	return strings.Join(parts, " ")
}

// Page is one recognized page (class ocr_page).
type Page struct {
	// Image is the source image reference from the page's title property.
	Image string
	BBox  BBox
	Lines []Line
}

// Document is a parsed hOCR file.
type Document struct {
	Pages []Page
}

// PlainText reassembles the recognized text: words joined with spaces, lines
// with newlines, pages separated by blank lines.
func (d *Document) PlainText() string {
	pages := make([]string, len(d.Pages))
	for i, page := range d.Pages {
		lines := make([]string, len(page.Lines))
		for j, line := range page.Lines {
			lines[j] = line.Text()
		}
		pages[i] = strings.Join(lines, "\n")
	}
	return strings.Join(pages, "\n\n")
}

// Parse decodes an hOCR document. It fails when the markup cannot be parsed
// or when no ocr_page element is present, which is how a tesseract run that
// produced diagnostics instead of hOCR shows up.
func Parse(data []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}
	doc := &Document{}
	collectPages(root, doc)
	if len(doc.Pages) == 0 {
		return nil, errors.New("hocr: no ocr_page element")
	}
	return doc, nil
}

func collectPages(n *html.Node, doc *Document) {
	if n.Type == html.ElementNode && nodeClass(n) == "ocr_page" {
		doc.Pages = append(doc.Pages, parsePage(n))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectPages(c, doc)
	}
}

func parsePage(n *html.Node) Page {
	props := parseTitle(attrValue(n, "title"))
	page := Page{Image: props.image, BBox: props.bbox}
	collectLines(n, &page)
	return page
}

// lineClasses covers ocr_line plus the variants tesseract emits for captions,
// headers and floating text.
var lineClasses = map[string]bool{
	"ocr_line":      true,
	"ocr_caption":   true,
	"ocr_header":    true,
	"ocr_textfloat": true,
}

func collectLines(n *html.Node, page *Page) {
	if n.Type == html.ElementNode && lineClasses[nodeClass(n)] {
		page.Lines = append(page.Lines, parseLine(n))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLines(c, page)
	}
}

func parseLine(n *html.Node) Line {
	props := parseTitle(attrValue(n, "title"))
	line := Line{BBox: props.bbox}
	collectWords(n, &line)
	return line
}

func collectWords(n *html.Node, line *Line) {
	if n.Type == html.ElementNode && nodeClass(n) == "ocrx_word" {
		props := parseTitle(attrValue(n, "title"))
		if text := nodeText(n); text != "" {
			line.Words = append(line.Words, Word{Text: text, BBox: props.bbox, Confidence: props.wconf})
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectWords(c, line)
	}
}

func nodeClass(n *html.Node) string {
	return attrValue(n, "class")
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.TrimSpace(sb.String())
}

// titleProps are the properties carried by an hOCR title attribute, for
// example `image "1.png"; bbox 0 0 640 480; ppageno 0` on a page or
// `bbox 42 40 230 76; x_wconf 95` on a word. Unknown properties and
// malformed values are ignored.
type titleProps struct {
	image string
	bbox  BBox
	wconf float64
}

func parseTitle(title string) titleProps {
	var props titleProps
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(prop))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "bbox":
			if bbox, ok := parseBBox(fields[1:]); ok {
				props.bbox = bbox
			}
		case "x_wconf":
			if len(fields) == 2 {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					props.wconf = v
				}
			}
		case "image":
			props.image = strings.Trim(strings.Join(fields[1:], " "), `"`)
		}
	}
	return props
}

func parseBBox(fields []string) (BBox, bool) {
	if len(fields) != 4 {
		return BBox{}, false
	}
	coords := make([]int, 4)
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return BBox{}, false
		}
		coords[i] = v
	}
	return BBox{X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3]}, true
}
