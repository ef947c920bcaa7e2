package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/belegscan/internal/category"
	"github.com/zombor/belegscan/internal/receipt"
	"github.com/zombor/belegscan/internal/scanning"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	// Logs go to stderr so stdout carries only the JSON result
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	fs := ff.NewFlagSet("belegscan-scan")
	var (
		modeName     = fs.StringLong("mode", "auto", "Recognition mode: 'auto', 'offline' or 'online'")
		uiLang       = fs.StringLong("lang", "de", "UI language: 'de' or 'it'")
		textInput    = fs.BoolLong("text", "Treat the input as already recognized text and skip OCR")
		dbPath       = fs.StringLong("db", "", "Category database file path (default: built-in categories)")
		hintsPath    = fs.StringLong("hints", "", "Category hint YAML file (default: built-in hints)")
		remoteType   = fs.StringLong("remote", "ocrspace", "Remote recognizer: 'ocrspace', 'gemini' or 'none'")
		ocrKey       = fs.StringLong("ocr-key", "", "OCR.space API key (or set OCR_SPACE_API_KEY env var)")
		ocrURL       = fs.StringLong("ocr-url", scanning.DefaultOCRSpaceURL, "OCR.space compatible parse endpoint")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		tessdata     = fs.StringLong("tessdata", "", "Tesseract tessdata directory (default: engine's built-in path)")
		probeTimeout = fs.DurationLong("probe-timeout", scanning.DefaultProbeTimeout, "Connectivity check timeout")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BELEGSCAN"),
	); err != nil {
		usage(fs, err)
	}

	args := fs.GetArgs()
	if len(args) != 1 {
		usage(fs, errors.New("exactly one receipt file is required"))
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		fail("Failed to read receipt", err)
	}

	var store category.Store = category.DefaultStore()
	if *dbPath != "" {
		db, err := category.NewBoltDB(*dbPath)
		if err != nil {
			fail("Failed to open category database", err)
		}
		defer db.Close()
		store = db
	}

	hints, err := category.LoadHints(*hintsPath)
	if err != nil {
		fail("Failed to load category hints", err)
	}
	suggester := category.NewSuggester(hints)

	if *textInput {
		service := receipt.NewService(nil, store, suggester)
		proposal, err := service.Propose(string(data))
		if err != nil {
			fail("Failed to propose draft", err)
		}
		printJSON(proposal)
		return
	}

	mode, err := scanning.ParseMode(*modeName)
	if err != nil {
		usage(fs, err)
	}

	remote, endpoint, err := scanning.NewRemote(scanning.RemoteConfig{
		Type:        *remoteType,
		OCRKey:      firstNonEmpty(*ocrKey, os.Getenv("OCR_SPACE_API_KEY")),
		OCRURL:      *ocrURL,
		GeminiKey:   firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY")),
		GeminiModel: *geminiModel,
	})
	if err != nil {
		fail("Failed to initialize remote recognizer", err)
	}

	var probe scanning.Connectivity
	if remote != nil {
		dialProbe, err := scanning.NewDialProbe(endpoint, *probeTimeout)
		if err != nil {
			fail("Failed to initialize connectivity probe", err)
		}
		probe = dialProbe
	}

	dispatcher := scanning.NewDispatcher(remote, scanning.NewTesseract(*tessdata), probe, slog.Default())
	defer dispatcher.Close()

	service := receipt.NewService(dispatcher, store, suggester)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	draft, err := service.Scan(ctx, receipt.ScanRequest{
		Source: scanning.Source{
			Data:        data,
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
		},
		Mode:       mode,
		UILanguage: *uiLang,
		OnProgress: func(fraction float64, status string) {
			fmt.Fprintf(os.Stderr, "%3.0f%% %s\n", fraction*100, status)
		},
	})
	if err != nil {
		var scanErr *scanning.Error
		if errors.As(err, &scanErr) {
			fmt.Fprintln(os.Stderr, scanErr.UserMessage())
		}
		fail("Scan failed", err)
	}

	printJSON(draft)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Failed to encode result", err)
	}
}

func usage(fs *ff.FlagSet, err error) {
	fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs, "belegscan-scan [flags] <receipt file>"))
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func fail(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
