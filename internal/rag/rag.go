package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"techdoc-rag/internal/chunker"
	"techdoc-rag/internal/config"
	"techdoc-rag/internal/metadata"
	"techdoc-rag/internal/models"
	"techdoc-rag/internal/store"
)

const (
	maxTopK      = 20
	previewChars = 200
)

// Embedder converts text to a vector. Satisfied by embedding.Client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator turns a retrieved context block and a query into an answer.
// Satisfied by llmservice.Generator.
type Generator interface {
	Generate(ctx context.Context, contextBlock, query string) (string, error)
}

// Engine orchestrates ingest (chunk, embed, extract, append) and query
// (embed, search, generate). Provider calls never run under the store lock.
type Engine struct {
	store     *store.Store
	embedder  Embedder
	generator Generator
	cfg       *config.RAGConfig
}

func NewEngine(st *store.Store, embedder Embedder, generator Generator, cfg *config.RAGConfig) *Engine {
	return &Engine{store: st, embedder: embedder, generator: generator, cfg: cfg}
}

func (e *Engine) Store() *store.Store { return e.store }

// IngestResult reports the outcome for a single document in a batch.
type IngestResult struct {
	FileName string   `json:"fileName"`
	Status   string   `json:"status"`
	Chunks   int      `json:"chunks"`
	Failed   int      `json:"failed,omitempty"`
	Tags     []string `json:"metadata,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// IngestDocument chunks a document and indexes each chunk. Embedding failures
// are logged and skipped so one bad chunk never sinks the document; a document
// where every chunk failed comes back with status "error".
func (e *Engine) IngestDocument(ctx context.Context, doc models.Document) IngestResult {
	res := IngestResult{FileName: doc.Name, Status: "ok"}

	chunks := chunker.Chunk(doc.Content, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		res.Status = "error"
		res.Error = "no text to index"
		return res
	}

	now := time.Now()
	tagSet := map[string]struct{}{}
	for i, text := range chunks {
		vec, err := e.embedder.Embed(ctx, text)
		if err != nil {
			log.Warn().Err(err).Str("file", doc.Name).Int("chunk", i+1).Msg("Skipping chunk, embedding failed")
			res.Failed++
			continue
		}
		meta, tags := metadata.Extract(text)
		_, err = e.store.Append(models.ChunkRecord{
			SourceDocument: doc.Name,
			MimeType:       doc.MimeType,
			System:         doc.System,
			Subsystem:      doc.Subsystem,
			Text:           text,
			Embedding:      vec,
			Position:       i + 1,
			TotalChunks:    len(chunks),
			Tags:           tags,
			Metadata:       meta,
			IngestedAt:     now,
		})
		if err != nil {
			log.Warn().Err(err).Str("file", doc.Name).Int("chunk", i+1).Msg("Skipping chunk, append rejected")
			res.Failed++
			continue
		}
		res.Chunks++
		for _, t := range tags {
			tagSet[t] = struct{}{}
		}
	}

	for t := range tagSet {
		res.Tags = append(res.Tags, t)
	}
	if res.Chunks == 0 {
		res.Status = "error"
		res.Error = "all chunks failed embedding"
	}
	return res
}

// AskRequest is one query against the index.
type AskRequest struct {
	Query  string
	K      int
	Filter models.Filter
}

// Source is provenance for one selected chunk, for citation.
type Source struct {
	FileName string         `json:"fileName"`
	Position int            `json:"position"`
	Total    int            `json:"totalChunksInDocument"`
	Score    float64        `json:"score"`
	Preview  string         `json:"preview"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Answer is the engine's reply. NoMatches distinguishes "nothing matched"
// (a normal outcome) from an error.
type Answer struct {
	Result       string   `json:"result"`
	Sources      []Source `json:"sources"`
	Used         int      `json:"used"`
	TotalIndexed int      `json:"totalIndexed"`
	Threshold    float64  `json:"threshold"`
	NoMatches    bool     `json:"-"`
}

// Answer validates the request, embeds the query, searches the store and hands
// the selected chunks to the generator. Validation failures short-circuit
// before any provider call.
func (e *Engine) Answer(ctx context.Context, req AskRequest) (*Answer, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, models.ErrEmptyQuery
	}
	total := e.store.Len()
	if total == 0 {
		return nil, models.ErrEmptyIndex
	}

	vec, err := e.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	k := req.K
	if k <= 0 {
		k = e.cfg.TopK
	}
	if k > maxTopK {
		k = maxTopK
	}

	results := e.store.Search(store.Query{Vector: vec, Text: req.Query, Filter: req.Filter, K: k})

	ans := &Answer{
		TotalIndexed: total,
		Threshold:    e.cfg.SimilarityThreshold,
	}
	if len(results) == 0 {
		ans.NoMatches = true
		ans.Result = "No relevant documents found for this query. Try rephrasing or ingesting more documentation."
		return ans, nil
	}

	contextBlock, used := e.buildContext(results)
	answer, err := e.generator.Generate(ctx, contextBlock, req.Query)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	ans.Result = answer
	ans.Used = used
	for _, r := range results[:used] {
		ans.Sources = append(ans.Sources, Source{
			FileName: r.Record.SourceDocument,
			Position: r.Record.Position,
			Total:    r.Record.TotalChunks,
			Score:    r.Score,
			Preview:  preview(r.Record.Text),
			Metadata: r.Record.Metadata,
		})
	}
	return ans, nil
}

// buildContext concatenates chunk texts with provenance headers, stopping at
// the character budget on a whole-chunk boundary. At least one chunk is always
// included.
func (e *Engine) buildContext(results []models.SearchResult) (string, int) {
	var b strings.Builder
	used := 0
	for _, r := range results {
		block := fmt.Sprintf("[source: %s, chunk %d/%d]\n%s\n\n",
			r.Record.SourceDocument, r.Record.Position, r.Record.TotalChunks, r.Record.Text)
		if used > 0 && b.Len()+len(block) > e.cfg.MaxContextChars {
			break
		}
		b.WriteString(block)
		used++
	}
	return b.String(), used
}

func preview(text string) string {
	if len(text) <= previewChars {
		return text
	}
	return text[:previewChars] + "..."
}
