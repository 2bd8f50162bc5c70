package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/likh/internal/export"
	"github.com/zombor/likh/internal/invoice"
	"github.com/zombor/likh/internal/scanning"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("likh-extract")
	var (
		out         = fs.StringLong("out", "", "Output XLSX path (default: input name with .xlsx)")
		printJSON   = fs.BoolLong("json", "Print the table as JSON instead of writing a workbook")
		oracle      = fs.StringLong("oracle", "gemini", "Extraction model: 'gemini', 'openai' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		openaiKey   = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel = fs.StringLong("openai-model", "gpt-4o", "OpenAI model name")
		openaiURL   = fs.StringLong("openai-url", "", "OpenAI-compatible API base URL (optional)")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name")
		timeout     = fs.IntLong("timeout", 60, "Model call timeout in seconds")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("LIKH"),
	); err != nil || len(fs.GetArgs()) != 1 {
		fmt.Fprintf(os.Stderr, "usage: likh-extract [flags] <invoice file>\n\n%s\n", ffhelp.Flags(fs))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
	input := fs.GetArgs()[0]

	scanner, err := scanning.Open(scanning.Config{
		Provider:    *oracle,
		GeminiKey:   firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY")),
		GeminiModel: *geminiModel,
		OpenAIKey:   firstNonEmpty(*openaiKey, os.Getenv("OPENAI_API_KEY")),
		OpenAIModel: *openaiModel,
		OpenAIURL:   *openaiURL,
		OllamaURL:   *ollamaURL,
		OllamaModel: *ollamaModel,
		Timeout:     time.Duration(*timeout) * time.Second,
	})
	if err != nil {
		slog.Error("Failed to initialize oracle", "oracle", *oracle, "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	table, err := extract(context.Background(), scanner, input)
	if errors.Is(err, invoice.ErrNoLineItems) {
		fmt.Println("Nothing to show: no line items were found in", input)
		return
	}
	if err != nil {
		slog.Error("Extraction failed", "file", input, "error", err)
		os.Exit(1)
	}

	if *printJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(table); err != nil {
			slog.Error("Failed to encode table", "error", err)
			os.Exit(1)
		}
		return
	}

	data, err := export.Workbook(table)
	if err != nil {
		slog.Error("Failed to build workbook", "error", err)
		os.Exit(1)
	}

	path := *out
	if path == "" {
		path = strings.TrimSuffix(input, filepath.Ext(input)) + ".xlsx"
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Error("Failed to write workbook", "path", path, "error", err)
		os.Exit(1)
	}
	slog.Info("Wrote invoice table", "path", path, "rows", table.Len())
}

// extract runs one document through the pipeline
func extract(ctx context.Context, scanner scanning.Scanner, path string) (*invoice.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return scanning.Extract(ctx, scanner, data, scanning.DetectContentType(path, ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
