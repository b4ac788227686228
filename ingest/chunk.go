package ingest

import "strings"

// Chunker splits cleaned document text into retrieval-sized pieces.
type Chunker interface {
	Chunk(text string) []string
}

// Tokenizer is the encoding surface used by the token-window chunker.
// contrib/tokenizer provides a tiktoken-backed implementation.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
}

// TokenChunker windows text by token count with overlap between
// consecutive windows.
type TokenChunker struct {
	tok     Tokenizer
	size    int
	overlap int
}

// NewTokenChunker creates a token-window chunker. Non-positive size selects
// 256 tokens; the overlap is clamped below the size.
func NewTokenChunker(tok Tokenizer, size, overlap int) *TokenChunker {
	if size <= 0 {
		size = 256
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &TokenChunker{tok: tok, size: size, overlap: overlap}
}

// Chunk implements Chunker.
func (c *TokenChunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ids := c.tok.Encode(text)
	if len(ids) <= c.size {
		return []string{strings.TrimSpace(text)}
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(ids); start += step {
		end := start + c.size
		if end > len(ids) {
			end = len(ids)
		}
		if piece := strings.TrimSpace(c.tok.Decode(ids[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}
		if end == len(ids) {
			break
		}
	}
	return chunks
}

// ParagraphChunker splits on blank lines and windows oversized paragraphs
// by character count with overlap.
type ParagraphChunker struct {
	size    int
	overlap int
}

// NewParagraphChunker creates a character-bound chunker. Non-positive size
// selects 1024 characters with an overlap of 128.
func NewParagraphChunker(size, overlap int) *ParagraphChunker {
	if size <= 0 {
		size = 1024
	}
	if overlap < 0 || overlap >= size {
		overlap = 128
		if overlap >= size {
			overlap = size / 8
		}
	}
	return &ParagraphChunker{size: size, overlap: overlap}
}

// Chunk implements Chunker.
func (c *ParagraphChunker) Chunk(text string) []string {
	var chunks []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		runes := []rune(part)
		for len(runes) > c.size {
			chunks = append(chunks, strings.TrimSpace(string(runes[:c.size])))
			runes = runes[c.size-c.overlap:]
		}
		if piece := strings.TrimSpace(string(runes)); piece != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}
