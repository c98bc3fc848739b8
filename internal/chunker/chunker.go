// Package chunker implements the Chunker component of spec.md §4.1:
// a sentence- and section-boundary aware splitter producing
// overlapping windows of target ~1200 chars with ~250-char overlap.
// Grounded on original_source/app/core/document_processor.py's
// _intelligent_chunk_text/_split_by_document_sections/
// _advanced_chunk_section, adapted into the rune-slice sliding-window
// idiom of document-chunker/main.go's createSlidingWindowChunks.
package chunker

import (
	"regexp"
	"strings"

	"policy-qa-core/internal/ragtypes"
)

// sectionSplit mirrors document_processor.py's section_patterns list:
// major structural markers the normalizer injected, plus runs of 3+
// newlines as a fallback boundary.
var sectionSplit = regexp.MustCompile(`(?i)\n\nSECTION:\s*[^\n]+\n\n|\n\nSUBSECTION:\s*[^\n]+\n\n|\n\nCLAUSE \d+\.|\n{3,}`)

const minChunkLen = 75

// Chunk splits cleaned, normalized text into ChunkText windows.
// target and overlap are the configured CHUNK_SIZE/CHUNK_OVERLAP
// (floored at the defaults 1200/250, matching the Python's
// max(1200, settings.CHUNK_SIZE)).
func Chunk(cleanedText string, target, overlap int) []ragtypes.ChunkText {
	if target < 1200 {
		target = 1200
	}
	if overlap < 250 {
		overlap = 250
	}

	sections := splitSections(cleanedText)

	var raw []string
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if len(section) <= target {
			raw = append(raw, section)
			continue
		}
		raw = append(raw, chunkSection(section, target, overlap)...)
	}

	out := make([]ragtypes.ChunkText, 0, len(raw))
	idx := 0
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if len(c) < minChunkLen {
			continue
		}
		out = append(out, ragtypes.ChunkText{Text: c, Index: idx})
		idx++
	}
	return out
}

func splitSections(text string) []string {
	parts := sectionSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// chunkSection splits a too-large section paragraph-by-paragraph,
// carrying ~overlap trailing chars of the previous chunk forward, and
// falls back to character-bounded word-boundary splits when a
// paragraph alone exceeds 1.5*target.
func chunkSection(section string, target, overlap int) []string {
	paragraphs := splitParagraphs(section)

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		if current.Len() > 0 && current.Len()+2+len(para) > target {
			full := current.String()
			flush()
			if overlap > 0 && len(full) > overlap {
				tail := lastSentenceOverlap(full[len(full)-overlap:])
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
			current.WriteString(para)
		} else {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(para)
		}
	}
	flush()

	final := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if float64(len(c)) <= float64(target)*1.5 {
			final = append(final, c)
		} else {
			final = append(final, splitByWordBoundary(c, target, overlap)...)
		}
	}
	return final
}

func splitParagraphs(section string) []string {
	raw := strings.Split(section, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

// lastSentenceOverlap keeps only the last two ". "-delimited sentences
// of the overlap window, matching document_processor.py's
// _advanced_chunk_section overlap trimming.
func lastSentenceOverlap(tail string) string {
	sentences := strings.Split(tail, ". ")
	if len(sentences) > 1 {
		return strings.Join(sentences[len(sentences)-2:], ". ")
	}
	return tail
}

// splitByWordBoundary is the character-bounded fallback (sliding
// window, word-boundary aware), grounded on document-chunker/main.go's
// createSlidingWindowChunks.
func splitByWordBoundary(text string, target, overlap int) []string {
	runes := []rune(text)
	var out []string
	step := target - overlap
	if step <= 0 {
		step = target
	}
	for i := 0; i < len(runes); i += step {
		end := i + target
		if end > len(runes) {
			end = len(runes)
		}
		piece := string(runes[i:end])
		if end < len(runes) {
			if last := strings.LastIndex(piece, " "); last > target/2 {
				end = i + last
				piece = string(runes[i:end])
			}
		}
		out = append(out, strings.TrimSpace(piece))
		if end >= len(runes) {
			break
		}
	}
	return out
}
