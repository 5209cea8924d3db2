// Package rules evaluates JavaScript verdict rules against per-image scan
// outcomes. A rule is an expression whose final value becomes the image's
// verdict in the run summary, letting operators encode pass/fail policies
// ("matches === total ? 'PASS' : 'REVIEW'") without rebuilding the scanner.
package rules

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
)

// FileInput is the data a verdict rule sees for one processed image. Each
// field is bound as a global in the rule's VM under its lowercase name.
type FileInput struct {
	// Name is the image file name.
	Name string
	// Text is the recognized plain text.
	Text string
	// Found maps each configured keyword to its match status.
	Found map[string]bool
	// Matches is the number of keywords found.
	Matches int
	// Total is the number of keywords configured.
	Total int
}

// Evaluator runs a compiled verdict rule. The program is compiled once; each
// evaluation executes it in a fresh VM, so an Evaluator is safe for
// concurrent use.
type Evaluator struct {
	prog *goja.Program
}

// Compile parses and compiles a verdict rule. Syntax errors surface here
// rather than per image.
func Compile(src string) (*Evaluator, error) {
	prog, err := goja.Compile("rule", src, true)
	if err != nil {
		return nil, fmt.Errorf("compile rule: %w", err)
	}
	return &Evaluator{prog: prog}, nil
}

// Evaluate runs the rule for one image and stringifies its result. An
// undefined or null result yields an empty verdict. Cancelling the context
// interrupts the VM, so a runaway rule cannot stall the batch.
func (e *Evaluator) Evaluate(ctx context.Context, in FileInput) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	vm := goja.New()
	vm.Set("name", in.Name)
	vm.Set("text", in.Text)
	vm.Set("found", in.Found)
	vm.Set("matches", in.Matches)
	vm.Set("total", in.Total)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := vm.RunProgram(e.prog)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return "", cause
			}
			return "", context.Canceled
		}
		return "", fmt.Errorf("evaluate rule: %w", err)
	}
	return verdictString(val), nil
}

func verdictString(val goja.Value) string {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return ""
	}
	return val.String()
}
