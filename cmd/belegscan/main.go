package main

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/belegscan/internal/category"
	"github.com/zombor/belegscan/internal/receipt"
	"github.com/zombor/belegscan/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A .env file is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("belegscan")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "belegscan.db", "Category database file path")
		modeName     = fs.StringLong("mode", "auto", "Default recognition mode: 'auto', 'offline' or 'online'")
		remoteType   = fs.StringLong("remote", "ocrspace", "Remote recognizer: 'ocrspace', 'gemini' or 'none'")
		ocrKey       = fs.StringLong("ocr-key", "", "OCR.space API key (or set OCR_SPACE_API_KEY env var)")
		ocrURL       = fs.StringLong("ocr-url", scanning.DefaultOCRSpaceURL, "OCR.space compatible parse endpoint")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		tessdata     = fs.StringLong("tessdata", "", "Tesseract tessdata directory (default: engine's built-in path)")
		hintsPath    = fs.StringLong("hints", "", "Category hint YAML file (default: built-in hints)")
		uiLang       = fs.StringLong("ui-lang", "de", "Default UI language: 'de' or 'it'")
		probeTimeout = fs.DurationLong("probe-timeout", scanning.DefaultProbeTimeout, "Connectivity check timeout")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BELEGSCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	mode, err := scanning.ParseMode(*modeName)
	if err != nil {
		slog.Error("Invalid recognition mode", "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing category database...", "path", *dbPath)
	db, err := category.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hints, err := category.LoadHints(*hintsPath)
	if err != nil {
		slog.Error("Failed to load category hints", "error", err)
		os.Exit(1)
	}

	remote, endpoint, err := scanning.NewRemote(scanning.RemoteConfig{
		Type:        *remoteType,
		OCRKey:      firstNonEmpty(*ocrKey, os.Getenv("OCR_SPACE_API_KEY")),
		OCRURL:      *ocrURL,
		GeminiKey:   firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY")),
		GeminiModel: *geminiModel,
	})
	if err != nil {
		slog.Error("Failed to initialize remote recognizer", "error", err)
		os.Exit(1)
	}

	var probe scanning.Connectivity
	if remote != nil {
		dialProbe, err := scanning.NewDialProbe(endpoint, *probeTimeout)
		if err != nil {
			slog.Error("Failed to initialize connectivity probe", "error", err)
			os.Exit(1)
		}
		probe = dialProbe
	}

	slog.Info("Initializing Tesseract...", "languages", scanning.DefaultLanguages)
	local := scanning.NewTesseract(*tessdata)

	dispatcher := scanning.NewDispatcher(remote, local, probe, slog.Default())
	defer dispatcher.Close()

	// Initialize service
	service := receipt.NewService(dispatcher, db, category.NewSuggester(hints))

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(service, basicAuth, receipt.ScanDefaults{
		Mode:       mode,
		UILanguage: *uiLang,
	})

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
