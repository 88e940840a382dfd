// Package chunker splits plain-text documents into embeddable chunks.
package chunker

import "strings"

// TextChunker packs paragraphs into chunks of at most maxTokens whitespace
// tokens, carrying overlap tokens of trailing context into the next chunk.
// Paragraphs larger than maxTokens are split on token boundaries.
type TextChunker struct {
	maxTokens int
	overlap   int
}

func NewTextChunker(maxTokens, overlap int) *TextChunker {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	if overlap < 0 || overlap >= maxTokens {
		overlap = 0
	}
	return &TextChunker{
		maxTokens: maxTokens,
		overlap:   overlap,
	}
}

func (c *TextChunker) Chunk(_ string, content string) []string {
	tokens := strings.Fields(content)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= c.maxTokens {
		return []string{strings.TrimSpace(content)}
	}

	step := c.maxTokens - c.overlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
