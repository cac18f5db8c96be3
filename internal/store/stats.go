package store

// Stats is a read-only aggregate over the whole collection.
type Stats struct {
	Total          int            `json:"total"`
	Documents      int            `json:"documents"`
	BySystem       map[string]int `json:"bySystem"`
	BySubsystem    map[string]int `json:"bySubsystem"`
	ByMimeType     map[string]int `json:"byMimeType"`
	ByTag          map[string]int `json:"byTag"`
	MeanChunkChars float64        `json:"meanChunkChars"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Total:       len(s.records),
		BySystem:    map[string]int{},
		BySubsystem: map[string]int{},
		ByMimeType:  map[string]int{},
		ByTag:       map[string]int{},
	}
	docs := map[string]struct{}{}
	var chars int
	for i := range s.records {
		rec := &s.records[i]
		docs[rec.SourceDocument] = struct{}{}
		if rec.System != "" {
			stats.BySystem[rec.System]++
		}
		if rec.Subsystem != "" {
			stats.BySubsystem[rec.Subsystem]++
		}
		if rec.MimeType != "" {
			stats.ByMimeType[rec.MimeType]++
		}
		for _, tag := range rec.Tags {
			stats.ByTag[tag]++
		}
		chars += len(rec.Text)
	}
	stats.Documents = len(docs)
	if stats.Total > 0 {
		stats.MeanChunkChars = float64(chars) / float64(stats.Total)
	}
	return stats
}
