package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docqa/internal/domain"
	"docqa/internal/httpapi"
	"docqa/internal/tui"
)

var (
	askTopK      int
	askJSON      bool
	summaryWords int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>...",
	Short: "Ingest one or more PDF files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the ingested documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <doc_id>",
	Short: "Summarize an ingested document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List ingested document ids, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runDocs,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Ask questions interactively",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of semantic matches (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output results as JSON")
	summarizeCmd.Flags().IntVarP(&summaryWords, "words", "w", 0, "summary length in words (default from config)")
	rootCmd.AddCommand(ingestCmd, askCmd, summarizeCmd, docsCmd, serveCmd, tuiCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, path := range args {
		res, err := a.svc.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		cmd.Printf("%s\t%s\t%d chunks\n", res.DocumentID, res.Filename, res.ChunksAdded)
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	k := askTopK
	if k == 0 {
		k = a.cfg.Retrieval.TopK
	}
	results, err := a.svc.Answer(ctx, args[0], k)
	if err != nil {
		return err
	}
	if askJSON {
		return outputAnswersJSON(cmd, args[0], results)
	}
	outputAnswers(cmd, results)
	return nil
}

func outputAnswersJSON(cmd *cobra.Command, question string, results []domain.AnswerRecord) error {
	data, err := json.MarshalIndent(map[string]any{"question": question, "results": results}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswers(cmd *cobra.Command, results []domain.AnswerRecord) {
	if len(results) == 0 {
		cmd.Println("No answers found.")
		return
	}
	for i, r := range results {
		cmd.Printf("[%d] %s (score %.3f, %s/%s)\n", i+1, r.Answer, r.Score, r.DocumentID, r.ChunkID)
	}
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	words := summaryWords
	if words == 0 {
		words = a.cfg.Summarizer.WordCount
	}
	summary, err := a.svc.Summarize(args[0], words)
	if err != nil {
		return err
	}
	cmd.Println(summary)
	return nil
}

func runDocs(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range a.svc.Documents() {
		cmd.Println(id)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := httpapi.NewServer(httpapi.Config{
		Addr:             a.cfg.Server.Addr,
		UploadDir:        a.cfg.Server.UploadDir,
		DefaultTopK:      a.cfg.Retrieval.TopK,
		DefaultWordCount: a.cfg.Summarizer.WordCount,
	}, a.svc, a.logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Log lines would corrupt the alternate screen.
	a, err := openApp(cmd.Context(), io.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	m := tui.New(a.svc, tui.Options{TopK: a.cfg.Retrieval.TopK, WordCount: a.cfg.Summarizer.WordCount})
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
