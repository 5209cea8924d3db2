// Package ocr defines abstraction layers for plugging third-party OCR engines
// (for example, Tesseract) into the scanning pipeline. The interfaces are
// intentionally small and transport-agnostic so engines can be backed by
// native libraries or local binaries without leaking provider-specific
// concerns into callers.
package ocr
