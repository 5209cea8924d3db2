package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/wudi/ocrgrep/imaging"
	"github.com/wudi/ocrgrep/observability"
	"github.com/wudi/ocrgrep/ocr"
	"github.com/wudi/ocrgrep/ocr/tesscli"
	_ "github.com/wudi/ocrgrep/ocr/tesseract"
	"github.com/wudi/ocrgrep/report"
	"github.com/wudi/ocrgrep/scan"
)

type options struct {
	cfg     scan.Config
	engine  string
	binary  string
	verbose bool
	quiet   bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ocrgrep: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "ocrgrep: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	// A .env file fills the gaps between flag defaults and explicit flags;
	// absence of the file is fine.
	_ = godotenv.Load()

	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: ocrgrep [flags]\n\nScans a directory of images with OCR and writes a keyword match matrix.\n\n")
		flag.PrintDefaults()
	}
	dir := flag.String("dir", envOr("OCRGREP_IMAGE_DIR", "./images"), "Directory containing images to scan")
	out := flag.String("out", envOr("OCRGREP_OUTPUT_FILE", "output.csv"), "CSV output file")
	keywords := flag.String("keywords", envOr("OCRGREP_KEYWORDS", ""), "Comma-separated keywords to match")
	lang := flag.String("lang", envOr("OCRGREP_LANGUAGES", ""), "OCR languages joined with + (e.g. eng+ind)")
	psm := flag.Int("psm", envIntOr("OCRGREP_PSM", 0), "Tesseract page segmentation mode (0 keeps the engine default)")
	oem := flag.Int("oem", envIntOr("OCRGREP_OEM", 0), "Tesseract engine mode (0 keeps the engine default)")
	dpi := flag.Int("dpi", envIntOr("OCRGREP_DPI", 0), "Image DPI hint (0 means unknown)")
	workers := flag.Int("workers", envIntOr("OCRGREP_WORKERS", 1), "Concurrent OCR workers")
	dedupe := flag.Bool("dedupe", envBoolOr("OCRGREP_DEDUPE", false), "Recognize byte-identical images only once")
	rule := flag.String("rule", envOr("OCRGREP_VERDICT_RULE", ""), "JavaScript verdict rule evaluated per image")
	ruleFile := flag.String("rule-file", envOr("OCRGREP_VERDICT_RULE_FILE", ""), "Read the verdict rule from this file instead of -rule")
	reportFile := flag.String("report", envOr("OCRGREP_REPORT_FILE", ""), "Write a Markdown run summary to this file")
	htmlReport := flag.String("report-html", envOr("OCRGREP_REPORT_HTML", ""), "Write an HTML run summary to this file")
	engine := flag.String("engine", envOr("OCRGREP_ENGINE", "tesseract"), "OCR engine: tesseract or tesseract-cli")
	binary := flag.String("tesseract-bin", envOr("OCRGREP_TESSERACT_BIN", ""), "Tesseract binary for the tesseract-cli engine")
	verbose := flag.Bool("v", false, "Enable debug logging")
	quiet := flag.Bool("q", false, "Log errors only")
	flag.Parse()

	if flag.NArg() > 0 {
		flag.Usage()
		return options{}, fmt.Errorf("unexpected argument %q", flag.Arg(0))
	}

	verdictRule := *rule
	if *ruleFile != "" {
		if verdictRule != "" {
			return options{}, fmt.Errorf("-rule and -rule-file are mutually exclusive")
		}
		src, err := os.ReadFile(*ruleFile)
		if err != nil {
			return options{}, fmt.Errorf("read rule file: %w", err)
		}
		verdictRule = strings.TrimSpace(string(src))
	}

	opts.cfg = scan.Config{
		ImageDir:   *dir,
		OutputFile: *out,
		Keywords:   splitList(*keywords, ","),
		OCR: scan.OCRConfig{
			Languages:   splitList(*lang, "+"),
			PageSegMode: *psm,
			EngineMode:  *oem,
			DPI:         *dpi,
		},
		Workers:        *workers,
		DedupeCache:    *dedupe,
		VerdictRule:    verdictRule,
		ReportFile:     *reportFile,
		HTMLReportFile: *htmlReport,
	}
	opts.engine = *engine
	opts.binary = *binary
	opts.verbose = *verbose
	opts.quiet = *quiet
	return opts, nil
}

func run(opts options) error {
	level := zapcore.InfoLevel
	if opts.verbose {
		level = zapcore.DebugLevel
	}
	if opts.quiet {
		level = zapcore.ErrorLevel
	}
	logger, err := observability.NewConsoleLogger(level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if len(opts.cfg.Keywords) == 0 {
		logger.Warn("no keywords configured, the matrix will carry only the header row")
	}

	engine, err := selectEngine(opts)
	if err != nil {
		return err
	}

	runner := scan.New(opts.cfg, scan.WithEngine(engine), scan.WithLogger(logger))
	sum, err := runner.Run(context.Background())
	if err != nil {
		return err
	}
	printSummary(sum)
	return nil
}

func selectEngine(opts options) (ocr.Engine, error) {
	switch opts.engine {
	case "tesseract":
		return ocr.DefaultEngine(), nil
	case "tesseract-cli":
		engine := tesscli.NewEngine(opts.binary)
		if !engine.Available() {
			return nil, fmt.Errorf("tesseract binary not found in PATH")
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown engine %q (expected tesseract or tesseract-cli)", opts.engine)
	}
}

func printSummary(sum *report.Summary) {
	if sum.Totals.Images == 0 {
		fmt.Printf("No supported images (%s) found in %s\n",
			strings.Join(imaging.SupportedExtensions(), ", "), sum.SourceDir)
		return
	}
	fmt.Println()
	fmt.Printf("Total Images Processed: %d\n", sum.Totals.Images)
	fmt.Printf("Total Keywords Checked: %d\n", sum.Totals.Checks)
	fmt.Printf("Total Successful Matches: %d\n", sum.Totals.Matches)
	fmt.Printf("Average Match Percentage: %.2f%%\n", sum.Totals.AverageMatchPercent())
	if sum.Totals.Failed > 0 {
		fmt.Printf("Images Failed: %d\n", sum.Totals.Failed)
	}
	if sum.Totals.Duplicates > 0 {
		fmt.Printf("Duplicate Contents: %d\n", sum.Totals.Duplicates)
	}
	fmt.Printf("Results written to %s\n", sum.OutputFile)
}

func splitList(value, sep string) []string {
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
