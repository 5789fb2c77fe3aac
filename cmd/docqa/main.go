package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/hashing"
	"docqa/internal/embedding/openai"
	"docqa/internal/extractor"
	"docqa/internal/journal/jsonfile"
	"docqa/internal/journal/sqlite"
	"docqa/internal/pdf"
	"docqa/internal/repository"
	"docqa/internal/service"
	docslog "docqa/internal/slog"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about PDF documents",
	Long: `docqa ingests PDF files, splits them into overlapping chunks and embeds them.
Questions are answered by extracting labelled fields (name, semester, GPA, email,
phone, GitHub) from the latest document, falling back to semantic search.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/docqa/config.yaml)")
}

func main() {
	_ = godotenv.Load()
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is a fully assembled service plus everything that must be closed with it.
type app struct {
	cfg     *config.AppConfig
	svc     *service.RAGService
	logger  *slog.Logger
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openApp loads configuration, assembles components and restores the index
// from the persisted chunk sequence.
func openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, logOut)
	slog.SetDefault(logger)
	a := &app{cfg: cfg, logger: logger}

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "hashing":
		emb = hashing.NewEmbedder(cfg.Embedder.Dimension)
	case "openai":
		oc := cfg.Embedder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:           oc.BaseURL,
			APIKeyEnv:         oc.APIKeyEnv,
			Model:             oc.Model,
			Dimension:         cfg.Embedder.Dimension,
			Timeout:           time.Duration(oc.TimeoutSecs) * time.Second,
			BatchSize:         oc.BatchSize,
			Concurrency:       oc.Concurrency,
			RequestsPerSecond: oc.RequestsPerSecond,
			MaxRetries:        oc.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	}
	emb = docslog.NewLoggingEmbedder(emb, logger)

	var index domain.VectorIndex
	switch cfg.VectorStore.Type {
	case "memory":
		index = memory.NewStorage()
	case "qdrant":
		qc := cfg.VectorStore.Qdrant
		st, err := qdrant.NewStorage(qdrant.Config{
			Host:       qc.Host,
			Port:       qc.Port,
			APIKey:     qc.APIKey,
			Collection: qc.Collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant init failed: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		index = st
	}
	index = docslog.NewLoggingVectorIndex(index, logger)

	var journal domain.Journal
	switch cfg.Journal.Type {
	case "jsonfile":
		journal = jsonfile.New(cfg.Journal.Path)
	case "sqlite":
		j := sqlite.NewJournal(cfg.Journal.Path)
		if err := j.Open(); err != nil {
			a.Close()
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		journal = j
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "truncate":
		sum = summarizer.NewTruncateSummarizer()
	case "frequency":
		sum = summarizer.NewFrequencySummarizer()
	}

	ch, err := chunker.NewWindowChunker(chunker.Config{
		ChunkSize:       cfg.Chunker.ChunkSize,
		Overlap:         cfg.Chunker.Overlap,
		MaxPages:        cfg.Chunker.MaxPages,
		MaxChunksPerDoc: cfg.Chunker.MaxChunksPerDoc,
	})
	if err != nil {
		journal.Close()
		a.Close()
		return nil, err
	}

	repo := repository.New(journal, index)
	a.svc = service.NewRAGService(pdf.NewReader(), ch, emb, repo, extractor.New(), sum, logger)
	a.closers = append(a.closers, a.svc.Close)
	if err := a.svc.Restore(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("restoring index: %w", err)
	}
	return a, nil
}
