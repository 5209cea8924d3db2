package ocr

import "fmt"

// RecognitionError reports a failed recognition attempt for a single image.
// Engines wrap their provider-specific failures in this type so callers can
// attribute the failure to an input without parsing message text.
type RecognitionError struct {
	// ID is the input ID, usually the image file's base name.
	ID  string
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognize %s: %v", e.ID, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }
