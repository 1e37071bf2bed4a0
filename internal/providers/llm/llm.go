package llm

import (
	"context"
	"fmt"
	"strings"
)

type Provider interface {
	// StreamAnswer returns a stream of text chunks (incremental).
	StreamAnswer(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)
	Close() error
}

// Collect drains a stream, calling onChunk for every piece, and returns the
// full text. The first stream error is returned with what arrived before it.
func Collect(ctx context.Context, p Provider, prompt string, onChunk func(string)) (string, error) {
	chunks, errs := p.StreamAnswer(ctx, prompt)

	var sb strings.Builder
	for chunks != nil || errs != nil {
		select {
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			sb.WriteString(c)
			if onChunk != nil {
				onChunk(c)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return sb.String(), err
			}
		}
	}
	return sb.String(), nil
}

// CoachingPrompt asks for a short note on one interview answer.
func CoachingPrompt(question, skill, transcript string) string {
	var b strings.Builder
	b.WriteString("You are reviewing a candidate's spoken answer in a job interview.\n")
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(question))
	if skill != "" {
		fmt.Fprintf(&b, "Skill assessed: %s\n", skill)
	}
	fmt.Fprintf(&b, "Transcript: %q\n", strings.TrimSpace(transcript))
	b.WriteString("In at most three sentences, say how relevant and technically deep the answer is and one concrete thing to improve. Plain text only.")
	return b.String()
}
