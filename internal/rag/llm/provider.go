package llm

import "context"

// Provider generates the final answer from the assembled context. One
// request means one billed generation: implementations must not retry.
type Provider interface {
	Generate(ctx context.Context, question string, contextBlock string) (string, error)
}
