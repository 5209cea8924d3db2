package ocr

import "testing"

func TestTesseractOptions(t *testing.T) {
	in := Input{}
	WithTesseractPSM(6)(&in)
	if got := in.Metadata[TesseractPageSegMode]; got != "6" {
		t.Fatalf("expected PSM to be set, got %q", got)
	}
	WithTesseractOEM(1)(&in)
	if got := in.Metadata[TesseractEngineMode]; got != "1" {
		t.Fatalf("expected OEM to be set, got %q", got)
	}
	WithTesseractWhitelist("ABC")(&in)
	if got := in.Metadata[TesseractCharWhitelist]; got != "ABC" {
		t.Fatalf("expected whitelist to be set, got %q", got)
	}
}
