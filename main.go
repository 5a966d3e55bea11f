package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/insightdelivered/invoice-extractor/internal/api"
	"github.com/insightdelivered/invoice-extractor/internal/common"
	"github.com/insightdelivered/invoice-extractor/internal/config"
	"github.com/insightdelivered/invoice-extractor/internal/docextract"
	"github.com/insightdelivered/invoice-extractor/internal/extractor"
	"github.com/insightdelivered/invoice-extractor/internal/llm"
	"github.com/insightdelivered/invoice-extractor/internal/models"
	"github.com/insightdelivered/invoice-extractor/internal/parser"
	"github.com/insightdelivered/invoice-extractor/internal/pipeline"
	"github.com/insightdelivered/invoice-extractor/internal/writer"
)

const version = "1.0.0"

func main() {
	configFlag := flag.String("config", "", "Path to config file (defaults to ./config.yaml if present)")
	passwordFlag := flag.String("password", "", "Password for encrypted invoice PDFs")
	dueDateFlag := flag.String("due-date", "", "Due date override (YYYY-MM-DD), used only when the document has none")
	outputFlag := flag.String("output", "", "Output file path (defaults to input filename with the format's extension)")
	formatFlag := flag.String("format", "csv", "Output format: csv, xlsx or json")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Credit-Card Invoice Extractor
by Insight Delivered (QEA AutoLens)

Extracts structured transactions, due date and total from Brazilian
credit-card invoice PDFs (Itaú, Nubank, Bradesco, Santander, Banco do
Brasil, Caixa, Inter, C6, XP, BTG).

Usage:
  invoice-extractor [flags] <fatura.pdf> [fatura2.pdf ...]
  invoice-extractor -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert one invoice to CSV
  invoice-extractor fatura.pdf

  # Encrypted invoice, explicit output
  invoice-extractor -password=1234 -output=nov.csv fatura.pdf

  # Spreadsheet output
  invoice-extractor -format=xlsx fatura.pdf

  # Run the HTTP API
  invoice-extractor -serve
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("invoice-extractor v%s\n", version)
		os.Exit(0)
	}

	// Optional .env for local runs; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatalf("Failed to load configuration: %v\n", err)
	}
	common.SetupLogger(common.ParseLogLevel(cfg.LogLevel), cfg.LogFormat)

	p := buildPipeline(cfg)

	if *serveFlag {
		serve(cfg, p)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if *formatFlag != "csv" && *formatFlag != "xlsx" && *formatFlag != "json" {
		fatalf("Unknown format %q. Supported: csv, xlsx, json\n", *formatFlag)
	}

	var dueDateOverride time.Time
	if *dueDateFlag != "" {
		d, err := time.Parse("2006-01-02", *dueDateFlag)
		if err != nil {
			fatalf("Invalid -due-date %q, expected YYYY-MM-DD\n", *dueDateFlag)
		}
		dueDateOverride = d
	}

	for _, inputPath := range flag.Args() {
		if err := processFile(p, inputPath, *passwordFlag, dueDateOverride, *outputFlag, *formatFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func buildPipeline(cfg *config.Config) *pipeline.Pipeline {
	text := &extractor.PDFExtractor{Pdftotext: cfg.Pdftotext}

	ocr := extractor.NewOCREngine(extractor.OCRConfig{
		Pdftoppm:  cfg.Pdftoppm,
		Tesseract: cfg.Tesseract,
		Lang:      cfg.TesseractLang,
		DPI:       cfg.OCRDPI,
		Timeout:   cfg.OCRTimeout,
	}, slog.Default())

	external := docextract.NewClient(docextract.Config{
		URL:        cfg.ExternalURL,
		APIKey:     cfg.ExternalAPIKey,
		Timeout:    cfg.ExternalTimeout,
		MaxRetries: cfg.ExternalMaxRetries,
	}, slog.Default())

	// A nil *llm.Client must stay a nil interface, or the document-aware
	// strategies would try to call it.
	var docParser parser.DocumentExtractor
	if c := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	}, slog.Default()); c != nil {
		docParser = c
	}

	strategies := parser.DefaultStrategies(docParser)
	return pipeline.New(cfg, slog.Default(), text, ocr, external, strategies)
}

func serve(cfg *config.Config, p *pipeline.Pipeline) {
	app := fiber.New(fiber.Config{
		AppName:   "invoice-extractor v" + version,
		BodyLimit: 32 << 20,
	})

	srv := &api.Server{Pipeline: p, Log: slog.Default()}
	srv.Register(app)

	slog.Info("listening", "addr", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		fatalf("Server failed: %v\n", err)
	}
}

func processFile(p *pipeline.Pipeline, inputPath, password string, dueDateOverride time.Time, outputPath, format string) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if ext := strings.ToLower(filepath.Ext(inputPath)); ext != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", ext)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	doc, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	res, err := p.Extract(context.Background(), doc, password, dueDateOverride)
	if err != nil {
		return err
	}

	parse := res.Parse
	fmt.Printf("  Issuer: %s\n", parse.Issuer)
	fmt.Printf("  Due date: %s\n", parse.DueDate.Format("2006-01-02"))
	fmt.Printf("  Total: %s\n", parse.Total.StringFixed(2))
	fmt.Printf("  Transactions: %d (score %d, source %s)\n", len(parse.Transactions), parse.Score, parse.Source)
	if res.OCRAttempted {
		fmt.Println("  OCR was used for this document.")
	}
	if res.Fallback != models.DecisionNone {
		fmt.Printf("  Fallback decision: %s\n", res.Fallback)
	}

	outPath := outputPath
	if outPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outPath = base + "." + format
	}

	switch format {
	case "xlsx":
		err = (&writer.XLSXWriter{}).WriteToFile(outPath, parse)
	case "json":
		err = (&writer.JSONWriter{}).WriteToFile(outPath, parse)
	default:
		err = (&writer.CSVWriter{}).WriteToFile(outPath, parse)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Printf("  Output: %s\n", outPath)
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
