package models

import "time"

// ChunkRecord is the unit of indexing and retrieval: one chunk of extracted
// document text together with its embedding and the signals derived from it.
type ChunkRecord struct {
	ID             int64          `json:"id"`
	SourceDocument string         `json:"sourceDocument"`
	MimeType       string         `json:"mimeType"`
	System         string         `json:"system"`
	Subsystem      string         `json:"subsystem"`
	Text           string         `json:"text"`
	Embedding      []float32      `json:"-"`
	Position       int            `json:"position"`
	TotalChunks    int            `json:"totalChunksInDocument"`
	Tags           []string       `json:"tags"`
	Metadata       map[string]any `json:"metadata"`
	IngestedAt     time.Time      `json:"ingestedAt"`
}

// SearchResult pairs a record with its boosted similarity score.
type SearchResult struct {
	Record ChunkRecord
	Score  float64
}

// Filter narrows a search to records matching all of its non-empty predicates.
// System and Subsystem are case-insensitive substring matches; Tags requires at
// least one overlapping tag.
type Filter struct {
	System    string
	Subsystem string
	Tags      []string
}

// Document is raw extracted text handed to the ingest pipeline. Extraction
// itself (PDF, DOCX, ...) happens upstream in the parser.
type Document struct {
	Name      string
	MimeType  string
	System    string
	Subsystem string
	Content   string
}
