package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/internal/answer"
	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/history"
	"docqa/internal/ingest"
	"docqa/internal/llm"
	"docqa/internal/loaders"
	"docqa/internal/tui"
	"docqa/internal/vectorstore"
)

var cfgPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "docqa",
		Short:        "Ingest documents and answer questions about them",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default: ./config.yaml, then ~/.config/docqa/config.yaml)")
	root.AddCommand(ingestCmd(), askCmd(), chatCmd(), historyCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired components. One vector store handle is built per
// process and shared by the pipeline and the engine.
type app struct {
	cfg      *config.AppConfig
	store    *vectorstore.Store
	pipeline *ingest.Pipeline
	engine   *answer.Engine
	history  *history.File
}

func setup() (*app, error) {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	emb, err := embedding.Select(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	store, err := vectorstore.Open(cfg.Store.Path, emb)
	if err != nil {
		return nil, err
	}

	// no credential means no LLM; the engine then answers extractively
	var model domain.LLM
	client, err := llm.NewClient(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Model:     cfg.LLM.Model,
		Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err == nil {
		model = client
	}

	splitter := chunker.NewSplitter(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	return &app{
		cfg:      cfg,
		store:    store,
		pipeline: ingest.New(splitter, store),
		engine:   answer.NewEngine(store, model, cfg.TopK),
		history:  history.NewFile(cfg.Store.HistoryPath),
	}, nil
}

func ingestCmd() *cobra.Command {
	var pdfPath, pageURL, videoURL, textPath, title, docID string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load a document into the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.store.Close()

			doc, err := loadSource(cmd, pdfPath, pageURL, videoURL, textPath, title)
			if err != nil {
				return err
			}
			id, count, err := a.pipeline.Ingest(cmd.Context(), doc.Title, doc.Content, doc.SourceKind, docID)
			if err != nil {
				return err
			}
			if count == 0 {
				fmt.Println("No content to ingest.")
				return nil
			}
			if err := a.history.AddUpload(doc.SourceKind, doc.Title, id, count); err != nil {
				log.Printf("WARN: failed to record upload history: %v", err)
			}
			fmt.Printf("Ingested %d chunks from %q (doc id %s)\n", count, doc.Title, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "path to a PDF file")
	cmd.Flags().StringVar(&pageURL, "url", "", "webpage URL")
	cmd.Flags().StringVar(&videoURL, "youtube", "", "YouTube video URL")
	cmd.Flags().StringVar(&textPath, "text", "", "path to a text file, or - for stdin")
	cmd.Flags().StringVar(&title, "title", "", "title override for the source")
	cmd.Flags().StringVar(&docID, "id", "", "explicit document id (derived when empty)")
	return cmd
}

func loadSource(cmd *cobra.Command, pdfPath, pageURL, videoURL, textPath, title string) (domain.Document, error) {
	set := 0
	for _, v := range []string{pdfPath, pageURL, videoURL, textPath} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return domain.Document{}, fmt.Errorf("exactly one of --pdf, --url, --youtube or --text is required")
	}
	switch {
	case pdfPath != "":
		data, err := os.ReadFile(pdfPath)
		if err != nil {
			return domain.Document{}, err
		}
		name := title
		if name == "" {
			name = pdfPath
		}
		return loaders.FromPDF(data, name)
	case pageURL != "":
		doc, err := loaders.FromURL(cmd.Context(), pageURL)
		if err == nil && title != "" {
			doc.Title = title
		}
		return doc, err
	case videoURL != "":
		doc, err := loaders.FromYouTube(cmd.Context(), videoURL)
		if err == nil && title != "" {
			doc.Title = title
		}
		return doc, err
	default:
		var data []byte
		var err error
		if textPath == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(textPath)
			if title == "" {
				title = textPath
			}
		}
		if err != nil {
			return domain.Document{}, err
		}
		return loaders.FromText(string(data), title), nil
	}
}

func askCmd() *cobra.Command {
	var docIDs []string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.store.Close()

			question := strings.Join(args, " ")
			res := a.engine.Answer(cmd.Context(), question, answer.Options{DocIDs: docIDs})
			fmt.Println(res.Text)
			if len(res.Sources) > 0 {
				fmt.Println()
				for _, s := range res.Sources {
					fmt.Println(s)
				}
			}
			if err := a.history.AddQuery(question); err != nil {
				log.Printf("WARN: failed to record query history: %v", err)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&docIDs, "doc", nil, "restrict the answer to these document ids (repeatable)")
	return cmd
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question-answering session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.store.Close()
			m := tui.New(a.engine, a.history)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func historyCmd() *cobra.Command {
	var clearUploads, clearQueries bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the upload and query history",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.AppConfig
			var err error
			if cfgPath == "" {
				cfg, _, err = config.LoadDefault()
			} else {
				cfg, err = config.Load(cfgPath)
			}
			if err != nil {
				return err
			}
			h := history.NewFile(cfg.Store.HistoryPath)
			if clearUploads {
				if err := h.ClearUploads(); err != nil {
					return err
				}
			}
			if clearQueries {
				if err := h.ClearQueries(); err != nil {
					return err
				}
			}
			l := h.Read()
			fmt.Println("Uploads:")
			if len(l.Uploads) == 0 {
				fmt.Println("  (none)")
			}
			for _, u := range l.Uploads {
				fmt.Printf("  %s  %s · %s (%d chunks, id %s)\n", u.Time, strings.ToUpper(u.Type), u.Title, u.Chunks, u.DocID)
			}
			fmt.Println("Queries:")
			if len(l.Queries) == 0 {
				fmt.Println("  (none)")
			}
			for _, q := range l.Queries {
				fmt.Printf("  %s  %s\n", q.Time, q.Question)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearUploads, "clear-uploads", false, "clear upload history")
	cmd.Flags().BoolVar(&clearQueries, "clear-queries", false, "clear query history")
	return cmd
}
