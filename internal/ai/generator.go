// Package ai defines the generative-text contract shared by the extraction
// bridge and the proposal drafter. The service may be unconfigured or down;
// every caller owns a fallback and treats a nil generator or an error the
// same way.
package ai

import "context"

// Generator produces text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
