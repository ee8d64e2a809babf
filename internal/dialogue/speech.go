package dialogue

import "context"

// Synthesizer turns tutor text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns recorded learner audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
