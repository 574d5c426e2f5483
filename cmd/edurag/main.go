package main

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"edurag/internal/answer"
	"edurag/internal/chunker"
	"edurag/internal/config"
	"edurag/internal/domain"
	"edurag/internal/embedding/hash"
	openaiembed "edurag/internal/embedding/openai"
	"edurag/internal/extract"
	"edurag/internal/indexer"
	"edurag/internal/ledger"
	"edurag/internal/llm"
	"edurag/internal/retrieval"
	"edurag/internal/tui"
	"edurag/internal/vectorstore/memory"
	"edurag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	cfg, usedPath, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("using config %s", usedPath)

	embedder, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		log.Fatalf("embedder: %v", err)
	}
	store, err := buildStore(cfg.VectorStore)
	if err != nil {
		log.Fatalf("vector store: %v", err)
	}

	split := chunker.NewSplitter(cfg.Chunker.ChunkSize, *cfg.Chunker.Overlap, *cfg.Chunker.MinFraction)
	service := retrieval.NewService(embedder, store)

	book, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}
	defer book.Close()

	ix := indexer.New(split, service, book)

	ctx := context.Background()
	for _, path := range flag.Args() {
		if err := ingest(ctx, ix, path); err != nil {
			log.Fatalf("ingest %s: %v", path, err)
		}
	}

	gateway := llm.NewRegistry(backendConfigs(cfg.Models.Backends))

	mode, ok := domain.ParseMode(cfg.Retrieval.Mode)
	if !ok {
		log.Fatalf("unknown retrieval mode %q", cfg.Retrieval.Mode)
	}
	var defaultBackend string
	if len(cfg.Models.DefaultBackends) > 0 {
		defaultBackend = cfg.Models.DefaultBackends[0]
	}
	orch := answer.New(service, gateway, answer.Defaults{
		TopK:      cfg.Retrieval.TopK,
		Mode:      mode,
		BackendID: defaultBackend,
		Backends:  cfg.Models.DefaultBackends,
		Generate: domain.GenerateOptions{
			MaxTokens:   cfg.Models.MaxTokens,
			Temperature: cfg.Models.Temperature,
		},
	})

	header := buildHeader(ctx, gateway, book)
	p := tea.NewProgram(tui.New(orch, header), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui: %v", err)
	}
}

func loadConfig(path string) (*config.AppConfig, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	return config.LoadDefault()
}

func buildEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hash":
		return hash.NewEmbedder(cfg.Dimension), nil
	case "openai":
		oc := cfg.OpenAI
		if oc == nil {
			oc = &config.OpenAIEmbedderConfig{}
		}
		return openaiembed.NewClient(openaiembed.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}

func buildStore(cfg config.VectorStoreConfig) (domain.VectorStore, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewStore(), nil
	case "qdrant":
		qc := cfg.Qdrant
		if qc == nil {
			return nil, fmt.Errorf("vector_store.qdrant section is required for type qdrant")
		}
		return qdrant.NewStore(qdrant.Config{
			URL:        qc.URL,
			APIKey:     qc.APIKey,
			Collection: qc.Collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.Type)
	}
}

func backendConfigs(backends map[string]config.BackendConfig) map[string]llm.BackendConfig {
	out := make(map[string]llm.BackendConfig, len(backends))
	for name, b := range backends {
		out[name] = llm.BackendConfig{
			BaseURL:   b.BaseURL,
			APIKeyEnv: b.APIKeyEnv,
			Model:     b.Model,
			Timeout:   time.Duration(b.TimeoutSecs) * time.Second,
		}
	}
	return out
}

func ingest(ctx context.Context, ix *indexer.Indexer, path string) error {
	doc, err := extract.FromFile(path)
	if err != nil {
		return err
	}
	metadata := map[string]any{"filename": doc.Filename, "source": path}
	if doc.Pages > 0 {
		metadata["pages"] = doc.Pages
	}
	res, err := ix.Index(ctx, doc.Text, sourceID(doc.Text), metadata)
	if err != nil {
		return err
	}
	log.Printf("indexed %s: %d chunks", doc.Filename, res.ChunkCount)
	return nil
}

// sourceID derives a stable identifier from the document content, so
// re-ingesting the same file overwrites rather than duplicates.
func sourceID(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:8])
}

func buildHeader(ctx context.Context, gateway *llm.Registry, book *ledger.SQLite) string {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var parts []string
	for _, id := range gateway.Backends() {
		if gateway.Probe(probeCtx, id) {
			parts = append(parts, id)
		} else {
			parts = append(parts, id+" (offline)")
		}
	}
	header := "backends: " + strings.Join(parts, ", ")
	if entries, err := book.List(context.Background()); err == nil {
		header += fmt.Sprintf(" | documents: %d", len(entries))
	}
	return header
}
