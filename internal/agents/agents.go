// Package agents holds the prompt stages of the cleaning pipeline:
// analyze, recommend, evaluate.
package agents

import "context"

// Completer generates a completion for a single prompt. Satisfied by
// *llm.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
