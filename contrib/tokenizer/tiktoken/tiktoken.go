// Package tiktoken adapts the tiktoken-go encoder to the tokenizer
// surface the ingestion chunker expects.
package tiktoken

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer wraps one tiktoken encoding.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New resolves the encoding by model name first, then by encoding name
// (for example "cl100k_base").
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

// Encode returns the token IDs for the text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode returns the text for a token ID window.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

// CountTokens returns how many tokens the text encodes to.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}
