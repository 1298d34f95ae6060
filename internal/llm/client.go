package llm

import (
	"context"
	"io"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Transcriber turns recorded audio into text. Only some providers support it;
// the factory returns nil when the configured provider cannot transcribe.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}
