package chunker

import "strings"

// Chunk splits text into sentence-aligned chunks of at most targetSize
// characters, each chunk seeded with the tail of the previous one. The overlap
// is expressed in words (overlap/10 of them) rather than characters so a chunk
// never starts mid-word; the effective overlap length therefore varies.
//
// A single sentence longer than targetSize is emitted whole rather than cut.
func Chunk(text string, targetSize, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []string
	buf := sentences[0]
	for _, sentence := range sentences[1:] {
		if len(buf)+len(sentence)+2 > targetSize {
			chunks = append(chunks, buf+".")
			buf = seedOverlap(buf, overlap/10, sentence)
			continue
		}
		buf += ". " + sentence
	}
	if strings.TrimSpace(buf) != "" {
		chunks = append(chunks, buf+".")
	}
	return chunks
}

// splitSentences cuts text on sentence-terminating punctuation and drops
// empty units. Input with no terminator at all comes back as one unit.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sentences = append(sentences, p)
	}
	return sentences
}

// seedOverlap starts a fresh buffer with the last n words of the chunk that
// just closed, followed by the sentence that triggered the split.
func seedOverlap(closed string, n int, next string) string {
	if n <= 0 {
		return next
	}
	words := strings.Fields(closed)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ") + " " + next
}
