package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"techdoc-rag/internal/config"
	"techdoc-rag/internal/embedding"
	"techdoc-rag/internal/llmservice"
	"techdoc-rag/internal/rag"
	"techdoc-rag/internal/server"
	"techdoc-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	// Refuse to start without provider credentials rather than fail every request.
	if cfg.Embed.Key == "" {
		log.Fatal().Msg("Missing embedding provider credentials (set EMBEDDING_API_KEY)")
	}
	if cfg.InferLLM.Key == "" {
		log.Fatal().Msg("Missing inference provider credentials (set LLM_API_KEY)")
	}

	st := store.New(store.Options{
		Threshold:     cfg.RAG.SimilarityThreshold,
		RecencyWindow: cfg.RAG.RecencyWindow(),
		Boosts:        cfg.RAG.Boosts,
		Dimension:     cfg.Embed.Dimension,
	})
	embedder := embedding.NewClient(&cfg.Embed)
	generator := llmservice.NewGenerator(&cfg.InferLLM)
	engine := rag.NewEngine(st, embedder, generator, &cfg.RAG)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(engine).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}
