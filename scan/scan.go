// Package scan orchestrates batch OCR keyword scans: it lists the images in a
// directory, runs each through an OCR engine, checks the recognized text for
// configured keywords and serializes the outcome into a CSV matrix plus
// optional report files.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wudi/ocrgrep/imaging"
	"github.com/wudi/ocrgrep/match"
	"github.com/wudi/ocrgrep/observability"
	"github.com/wudi/ocrgrep/ocr"
	"github.com/wudi/ocrgrep/report"
	"github.com/wudi/ocrgrep/rules"
)

var (
	// ErrNoImageDir is returned when the configuration names no source
	// directory.
	ErrNoImageDir = errors.New("image directory not configured")
	// ErrNoOutputFile is returned when the configuration names no matrix
	// output file.
	ErrNoOutputFile = errors.New("output file not configured")
)

// OCRConfig fixes the engine options applied to every image in a run.
type OCRConfig struct {
	// Languages lists language codes used to select trained data, e.g.
	// ["eng", "ind"].
	Languages []string
	// PageSegMode is the tesseract page segmentation mode. Zero leaves the
	// engine's default in place (the OSD-only mode, also numbered 0, is not
	// applicable to keyword scanning).
	PageSegMode int
	// EngineMode is the tesseract OCR engine mode. Zero leaves the engine's
	// default in place.
	EngineMode int
	// DPI overrides the image resolution hint; zero means unknown.
	DPI int
}

func (c OCRConfig) options() []ocr.InputOption {
	var opts []ocr.InputOption
	if len(c.Languages) > 0 {
		opts = append(opts, ocr.WithLanguages(c.Languages...))
	}
	if c.PageSegMode > 0 {
		opts = append(opts, ocr.WithTesseractPSM(c.PageSegMode))
	}
	if c.EngineMode > 0 {
		opts = append(opts, ocr.WithTesseractOEM(c.EngineMode))
	}
	if c.DPI > 0 {
		opts = append(opts, ocr.WithDPI(c.DPI))
	}
	return opts
}

// Config drives a batch run. The zero value is not runnable; ImageDir,
// OutputFile and usually Keywords must be set.
type Config struct {
	// ImageDir is the directory whose supported images are scanned. Nested
	// directories are not descended into.
	ImageDir string
	// OutputFile receives the CSV keyword matrix.
	OutputFile string
	// Keywords are checked verbatim against each image's recognized text.
	// Order is preserved in every serialized output. An empty list is valid
	// and produces a header-only matrix.
	Keywords []string
	// OCR fixes the engine options for the whole run.
	OCR OCRConfig

	// Workers bounds concurrent recognitions. Values below 2 keep the
	// strictly sequential loop. Results are reported in directory listing
	// order regardless.
	Workers int
	// DedupeCache reuses the first recognition for byte-identical files, so
	// the engine runs once per unique content. Serialized rows and totals are
	// the same as without the cache.
	DedupeCache bool
	// VerdictRule is an optional JavaScript rule evaluated per image; its
	// result appears in the Markdown and HTML reports, never in the CSV.
	VerdictRule string
	// ReportFile, when set, receives a Markdown summary of the run.
	ReportFile string
	// HTMLReportFile, when set, receives the summary rendered to HTML.
	HTMLReportFile string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithEngine overrides the OCR engine. The registered default engine is used
// otherwise.
func WithEngine(engine ocr.Engine) Option {
	return func(r *Runner) { r.engine = engine }
}

// WithLogger sets the diagnostic logger. Runs are silent otherwise.
func WithLogger(logger observability.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// Runner executes batch scans. A Runner is immutable after construction and
// safe to reuse across runs.
type Runner struct {
	cfg    Config
	engine ocr.Engine
	logger observability.Logger
}

// New builds a Runner for the given configuration.
func New(cfg Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		engine: ocr.DefaultEngine(),
		logger: observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// fileOutcome is the per-file result slot, indexed by listing position so
// concurrent workers never reorder output.
type fileOutcome struct {
	name  string
	entry report.Entry
	text  string
	err   error
}

// Run scans the configured directory once. Per-image failures are logged and
// excluded from the matrix without aborting the batch; only configuration
// problems, an unlistable directory, a cancelled context or an unwritable
// output are fatal. When the directory holds no supported images the run ends
// without writing any files.
func (r *Runner) Run(ctx context.Context) (*report.Summary, error) {
	if r.cfg.ImageDir == "" {
		return nil, ErrNoImageDir
	}
	if r.cfg.OutputFile == "" {
		return nil, ErrNoOutputFile
	}

	started := time.Now()
	sum := &report.Summary{
		RunID:      uuid.NewString(),
		SourceDir:  r.cfg.ImageDir,
		OutputFile: r.cfg.OutputFile,
		EngineName: r.engine.Name(),
		Keywords:   append([]string(nil), r.cfg.Keywords...),
		StartedAt:  started,
	}
	log := r.logger.With(observability.String("run", sum.RunID))

	var evaluator *rules.Evaluator
	if r.cfg.VerdictRule != "" {
		ev, err := rules.Compile(r.cfg.VerdictRule)
		if err != nil {
			return nil, fmt.Errorf("verdict rule: %w", err)
		}
		evaluator = ev
	}

	files, err := listImages(r.cfg.ImageDir)
	if err != nil {
		return nil, fmt.Errorf("list images in %s: %w", r.cfg.ImageDir, err)
	}
	if len(files) == 0 {
		log.Warn("no supported images found", observability.String("dir", r.cfg.ImageDir))
		sum.Elapsed = time.Since(started)
		return sum, nil
	}
	log.Info("scan started",
		observability.String("dir", r.cfg.ImageDir),
		observability.String("engine", r.engine.Name()),
		observability.Int("images", len(files)),
		observability.Int("keywords", len(r.cfg.Keywords)),
	)

	metas := fingerprintFiles(r.cfg.ImageDir, files)
	outcomes := make([]fileOutcome, len(files))
	for i, m := range metas {
		if m.err != nil {
			log.Error("image rejected",
				observability.String("file", m.name),
				observability.Error("error", m.err),
			)
			outcomes[i] = fileOutcome{name: m.name, err: m.err}
		}
	}

	if err := r.recognizeAll(ctx, log, evaluator, metas, outcomes); err != nil {
		return nil, err
	}
	r.fillDuplicates(ctx, log, evaluator, metas, outcomes)

	for i := range outcomes {
		oc := &outcomes[i]
		if oc.err != nil {
			sum.Failures = append(sum.Failures, report.Failure{Case: oc.name, Reason: oc.err.Error()})
			continue
		}
		sum.Entries = append(sum.Entries, oc.entry)
		sum.Totals.Matches += oc.entry.Statuses.Count()
	}
	sum.Totals.Images = len(files)
	sum.Totals.Checks = len(files) * len(r.cfg.Keywords)
	sum.Totals.Succeeded = len(sum.Entries)
	sum.Totals.Failed = len(sum.Failures)
	for _, m := range metas {
		if m.dupOf >= 0 {
			sum.Totals.Duplicates++
		}
	}
	sum.Elapsed = time.Since(started)

	if err := r.writeOutputs(sum); err != nil {
		return nil, err
	}

	log.Info("scan complete",
		observability.Duration(observability.MetricScanDuration, sum.Elapsed),
		observability.Int(observability.MetricImagesScanned, sum.Totals.Images),
		observability.Int(observability.MetricKeywordMatches, sum.Totals.Matches),
		observability.Int("failed", sum.Totals.Failed),
		observability.Float64("average_match_percent", sum.Totals.AverageMatchPercent()),
	)
	return sum, nil
}

// recognizeAll fills the outcome slots for every file that needs a real
// recognition pass. Per-file failures land in their slot; only context
// cancellation aborts and surfaces as the returned error.
func (r *Runner) recognizeAll(ctx context.Context, log observability.Logger, ev *rules.Evaluator, metas []fileMeta, outcomes []fileOutcome) error {
	if r.cfg.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Workers)
		for i := range metas {
			if r.skipRecognition(metas[i]) {
				continue
			}
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = r.processFile(gctx, log, ev, metas[i].name)
				return gctx.Err()
			})
		}
		return g.Wait()
	}

	for i := range metas {
		if r.skipRecognition(metas[i]) {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		outcomes[i] = r.processFile(ctx, log, ev, metas[i].name)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) skipRecognition(m fileMeta) bool {
	if m.err != nil {
		return true
	}
	return m.dupOf >= 0 && r.cfg.DedupeCache
}

// fillDuplicates copies the representative's outcome into each cached
// duplicate slot. Statuses and totals come out the same as a real
// recognition of the identical bytes would produce; only the verdict rule is
// re-evaluated because it can depend on the file name.
func (r *Runner) fillDuplicates(ctx context.Context, log observability.Logger, ev *rules.Evaluator, metas []fileMeta, outcomes []fileOutcome) {
	if !r.cfg.DedupeCache {
		return
	}
	for i, m := range metas {
		if m.err != nil || m.dupOf < 0 {
			continue
		}
		rep := outcomes[m.dupOf]
		log.Debug("duplicate content",
			observability.String("file", m.name),
			observability.String("duplicate_of", rep.name),
		)
		if rep.err != nil {
			err := fmt.Errorf("duplicate of %s: %w", rep.name, rep.err)
			log.Error("recognition failed",
				observability.String("file", m.name),
				observability.Error("error", err),
			)
			outcomes[i] = fileOutcome{name: m.name, err: err}
			continue
		}
		outcomes[i] = r.buildOutcome(ctx, log, ev, m.name, rep.text, rep.entry.Confidence)
	}
}

func (r *Runner) processFile(ctx context.Context, log observability.Logger, ev *rules.Evaluator, name string) fileOutcome {
	path := filepath.Join(r.cfg.ImageDir, name)
	if _, err := imaging.Inspect(path); err != nil {
		log.Error("image rejected",
			observability.String("file", name),
			observability.Error("error", err),
		)
		return fileOutcome{name: name, err: err}
	}
	res, err := r.engine.Recognize(ctx, ocr.InputFromFile(path, r.cfg.OCR.options()...))
	if err != nil {
		log.Error("recognition failed",
			observability.String("file", name),
			observability.Error("error", err),
		)
		return fileOutcome{name: name, err: err}
	}
	return r.buildOutcome(ctx, log, ev, name, res.PlainText, res.MeanConfidence())
}

// buildOutcome derives the matrix entry for recognized text: keyword statuses
// first, then the optional verdict. A failing verdict rule downgrades to a
// warning and leaves the verdict empty rather than failing the image.
func (r *Runner) buildOutcome(ctx context.Context, log observability.Logger, ev *rules.Evaluator, name, text string, confidence float64) fileOutcome {
	statuses := match.Text(text, r.cfg.Keywords)
	entry := report.Entry{Case: name, Statuses: statuses, Confidence: confidence}
	if ev != nil {
		verdict, err := ev.Evaluate(ctx, rules.FileInput{
			Name:    name,
			Text:    text,
			Found:   statuses,
			Matches: statuses.Count(),
			Total:   len(r.cfg.Keywords),
		})
		if err != nil {
			log.Warn("verdict rule failed",
				observability.String("file", name),
				observability.Error("error", err),
			)
		} else {
			entry.Verdict = verdict
		}
	}
	log.Info("image processed",
		observability.String("file", name),
		observability.Int("matches", statuses.Count()),
		observability.Int("keywords", len(r.cfg.Keywords)),
		observability.Float64("confidence", confidence),
	)
	return fileOutcome{name: name, entry: entry, text: text}
}

// listImages returns the supported image file names in dir, in the sorted
// order os.ReadDir guarantees. Subdirectories and other file types are
// ignored.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imaging.IsSupported(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (r *Runner) writeOutputs(sum *report.Summary) error {
	doc := report.CSV(sum.Entries, sum.Keywords)
	if err := os.WriteFile(r.cfg.OutputFile, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", r.cfg.OutputFile, err)
	}
	if r.cfg.ReportFile == "" && r.cfg.HTMLReportFile == "" {
		return nil
	}
	md := sum.Markdown()
	if r.cfg.ReportFile != "" {
		if err := os.WriteFile(r.cfg.ReportFile, md, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", r.cfg.ReportFile, err)
		}
	}
	if r.cfg.HTMLReportFile != "" {
		page, err := report.RenderHTML(md, "OCR Keyword Scan")
		if err != nil {
			return err
		}
		if err := os.WriteFile(r.cfg.HTMLReportFile, page, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", r.cfg.HTMLReportFile, err)
		}
	}
	return nil
}
