package store

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"techdoc-rag/internal/config"
	"techdoc-rag/internal/metadata"
	"techdoc-rag/internal/models"
)

const firstID = 1

// Options carries the scoring tunables and, optionally, a pre-declared
// embedding dimension. When Dimension is zero the store pins it on the first
// successful append.
type Options struct {
	Threshold     float64
	RecencyWindow time.Duration
	Boosts        config.BoostConfig
	Dimension     int
}

// Store is the append-only in-memory collection of chunk records. A single
// RWMutex guards the slice, the id counter and the pinned dimension: appends
// and clears are exclusive, searches and stats run concurrently with each
// other. Records are immutable once inserted.
type Store struct {
	mu      sync.RWMutex
	records []models.ChunkRecord
	nextID  int64
	dim     int
	opts    Options
}

func New(opts Options) *Store {
	return &Store{nextID: firstID, dim: opts.Dimension, opts: opts}
}

// Append assigns the next id, validates the embedding length against the
// store-wide dimension and inserts the record. The id sequence is strictly
// increasing and race-free; ids are never reused.
func (s *Store) Append(rec models.ChunkRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = len(rec.Embedding)
	} else if len(rec.Embedding) != s.dim {
		return 0, &models.DimensionMismatchError{Want: s.dim, Got: len(rec.Embedding)}
	}

	rec.ID = s.nextID
	s.nextID++
	if rec.IngestedAt.IsZero() {
		rec.IngestedAt = time.Now()
	}
	s.records = append(s.records, rec)
	return rec.ID, nil
}

// Clear empties the collection and resets id allocation. Irreversible; it is
// fully exclusive against concurrent appends and searches.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.nextID = firstID
	if s.opts.Dimension == 0 {
		s.dim = 0
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Query is one search request against the store. Text is the original query
// string; boosts only fire when the query itself mentions the same class of
// vocabulary as the record's derived metadata.
type Query struct {
	Vector []float32
	Text   string
	Filter models.Filter
	K      int
}

// Search runs the filter, score, threshold, rank, truncate pipeline and
// returns at most K results. An empty result is a normal outcome.
func (s *Store) Search(q Query) []models.SearchResult {
	querySignals, _ := metadata.Extract(q.Text)
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []models.SearchResult
	for i := range s.records {
		rec := &s.records[i]
		if !matchesFilter(rec, q.Filter) {
			continue
		}
		score := cosineSimilarity(q.Vector, rec.Embedding) * s.boost(rec, querySignals, now)
		if score < s.opts.Threshold {
			continue
		}
		results = append(results, models.SearchResult{Record: *rec, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.ID < results[j].Record.ID
	})

	if q.K > 0 && len(results) > q.K {
		results = results[:q.K]
	}
	return results
}

// matchesFilter ANDs the three predicates; an empty predicate always passes.
func matchesFilter(rec *models.ChunkRecord, f models.Filter) bool {
	if f.System != "" && !strings.Contains(strings.ToLower(rec.System), strings.ToLower(f.System)) {
		return false
	}
	if f.Subsystem != "" && !strings.Contains(strings.ToLower(rec.Subsystem), strings.ToLower(f.Subsystem)) {
		return false
	}
	if len(f.Tags) > 0 && !anyTagOverlap(rec.Tags, f.Tags) {
		return false
	}
	return true
}

func anyTagOverlap(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// boost starts at 1.0 and adds a fixed increment per metadata signal that is
// set on both the record and the query, plus a small recency bump for records
// ingested inside the rolling window.
func (s *Store) boost(rec *models.ChunkRecord, querySignals map[string]any, now time.Time) float64 {
	b := 1.0
	if metadata.Flag(rec.Metadata, metadata.SignalTechnical) && metadata.Flag(querySignals, metadata.SignalTechnical) {
		b += s.opts.Boosts.Technical
	}
	if metadata.Flag(rec.Metadata, metadata.SignalWiring) && metadata.Flag(querySignals, metadata.SignalWiring) {
		b += s.opts.Boosts.Wiring
	}
	if metadata.Flag(rec.Metadata, metadata.SignalSafety) && metadata.Flag(querySignals, metadata.SignalSafety) {
		b += s.opts.Boosts.Safety
	}
	if metadata.Flag(rec.Metadata, metadata.SignalPartNumbers) && metadata.Flag(querySignals, metadata.SignalPartNumbers) {
		b += s.opts.Boosts.PartNumber
	}
	if s.opts.RecencyWindow > 0 && now.Sub(rec.IngestedAt) <= s.opts.RecencyWindow {
		b += s.opts.Boosts.Recency
	}
	return b
}

// cosineSimilarity is dot(a,b) / (|a|*|b|). Zero-magnitude vectors and length
// mismatches score 0 rather than erroring; a mismatch should be unreachable
// given the append-time check, but a query must never crash on one.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
