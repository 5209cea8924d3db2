package ocr

import "strconv"

// Tesseract variable names recognized by both the library-backed and the
// command-line engines.
const (
	TesseractPageSegMode   = "tessedit_pageseg_mode"
	TesseractEngineMode    = "tessedit_ocr_engine_mode"
	TesseractCharWhitelist = "tessedit_char_whitelist"
)

// WithTesseractPSM sets the page segmentation mode (PSM) variable for Tesseract.
// See https://tesseract-ocr.github.io/tessdoc/ImproveQuality.html#page-segmentation-method for values.
func WithTesseractPSM(mode int) InputOption {
	return setVariable(TesseractPageSegMode, strconv.Itoa(mode))
}

// WithTesseractOEM sets the OCR engine mode (OEM) variable for Tesseract,
// selecting between the legacy and LSTM recognizers.
func WithTesseractOEM(mode int) InputOption {
	return setVariable(TesseractEngineMode, strconv.Itoa(mode))
}

// WithTesseractWhitelist restricts recognition to the provided characters.
func WithTesseractWhitelist(chars string) InputOption {
	return setVariable(TesseractCharWhitelist, chars)
}

func setVariable(key, value string) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[key] = value
	}
}
