package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"techdoc-rag/internal/chunker"
	"techdoc-rag/internal/config"
	"techdoc-rag/internal/embedding"
	"techdoc-rag/internal/llmservice"
	"techdoc-rag/internal/metadata"
	"techdoc-rag/internal/models"
	"techdoc-rag/internal/parser"
	"techdoc-rag/internal/rag"
	"techdoc-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

// ragcli parses a local document, indexes it in-process and optionally runs a
// single query against the freshly built index. Useful for trying out chunking
// and retrieval without the HTTP service.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file")
	system := flag.String("system", "", "System label for the document")
	subsystem := flag.String("subsystem", "", "Subsystem label for the document")
	query := flag.String("query", "", "Query to be answered")
	topK := flag.Int("k", 0, "Number of chunks to retrieve")
	dryRun := flag.Bool("dry-run", false, "Chunk and tag only, do not embed or index")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Please provide a document file using the -file flag")
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	text, err := parser.Extract(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing document")
	}

	doc := models.Document{
		Name:      filepath.Base(*filePath),
		MimeType:  parser.MimeType(*filePath),
		System:    *system,
		Subsystem: *subsystem,
		Content:   text,
	}

	if *dryRun {
		printChunks(doc, &cfg.RAG)
		return
	}

	if cfg.Embed.Key == "" {
		log.Fatal().Msg("Missing embedding provider credentials (set EMBEDDING_API_KEY)")
	}

	ctx := context.Background()
	st := store.New(store.Options{
		Threshold:     cfg.RAG.SimilarityThreshold,
		RecencyWindow: cfg.RAG.RecencyWindow(),
		Boosts:        cfg.RAG.Boosts,
		Dimension:     cfg.Embed.Dimension,
	})
	engine := rag.NewEngine(st, embedding.NewClient(&cfg.Embed), llmservice.NewGenerator(&cfg.InferLLM), &cfg.RAG)

	res := engine.IngestDocument(ctx, doc)
	log.Info().Str("file", res.FileName).Str("status", res.Status).Int("chunks", res.Chunks).Int("failed", res.Failed).Msg("Ingested document")

	if *query == "" {
		return
	}
	if cfg.InferLLM.Key == "" {
		log.Fatal().Msg("Missing inference provider credentials (set LLM_API_KEY)")
	}

	ans, err := engine.Answer(ctx, rag.AskRequest{Query: *query, K: *topK})
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	fmt.Printf("Query:\n%s\n\n", *query)
	fmt.Printf("Answer:\n%s\n\n", ans.Result)
	for _, src := range ans.Sources {
		fmt.Printf("Source: %s (chunk %d/%d, score %.3f)\n", src.FileName, src.Position, src.Total, src.Score)
	}
}

func printChunks(doc models.Document, cfg *config.RAGConfig) {
	chunks := chunker.Chunk(doc.Content, cfg.ChunkSize, cfg.ChunkOverlap)
	for i, c := range chunks {
		_, tags := metadata.Extract(c)
		fmt.Printf("--- chunk %d/%d (%d chars) tags=%v\n%s\n\n", i+1, len(chunks), len(c), tags, c)
	}
}
