// Package answer assembles the bounded context window and produces the
// final answer through the LLM provider.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
	"github.com/doclens/doclens/internal/rag/errs"
	"github.com/doclens/doclens/internal/rag/llm"
	"github.com/doclens/doclens/pkg/logger_i"
)

type Composer struct {
	provider llm.Provider
	logger   *logger_i.Logger
}

func NewComposer(provider llm.Provider) *Composer {
	return &Composer{
		provider: provider,
		logger:   logger_i.NewLogger("answer_composer"),
	}
}

type Result struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Context string   `json:"context"`
}

// Answer produces the final response for a question. With zero ranked
// results it short-circuits to the fixed no-content answer and never calls
// the LLM.
func (c *Composer) Answer(ctx context.Context, question string, results []commonModels.SearchResult) (Result, error) {
	if len(results) == 0 {
		return Result{Answer: config.NoContentAnswer, Sources: []string{}}, nil
	}

	contextBlock, included := buildContext(results, config.MaxContextChars)
	answerText, err := c.provider.Generate(ctx, question, contextBlock)
	if err != nil {
		return Result{}, fmt.Errorf("%w: answer generation: %w", errs.ErrUnavailable, err)
	}

	c.logger.Debug("answer composed", "resultsUsed", len(included), "contextChars", len(contextBlock))
	return Result{
		Answer:  answerText,
		Sources: sourceIds(included),
		Context: contextBlock,
	}, nil
}

// BuildContext concatenates ranked chunks, each prefixed with its document
// id, title and score, stopping before the block that would push the total
// past maxChars. Chunks are never cut mid-text.
func BuildContext(results []commonModels.SearchResult, maxChars int) string {
	contextBlock, _ := buildContext(results, maxChars)
	return contextBlock
}

func buildContext(results []commonModels.SearchResult, maxChars int) (string, []commonModels.SearchResult) {
	var b strings.Builder
	var included []commonModels.SearchResult

	for _, r := range results {
		block := fmt.Sprintf("[%s %s] (score %.2f)\n%s", r.DocumentId, r.DocumentTitle, r.Score, r.Chunk.Text)
		sep := ""
		if b.Len() > 0 {
			sep = "\n\n"
		}
		if b.Len()+len(sep)+len(block) > maxChars {
			break
		}
		b.WriteString(sep)
		b.WriteString(block)
		included = append(included, r)
	}
	return b.String(), included
}

// sourceIds returns the distinct document ids behind the included chunks,
// in rank order.
func sourceIds(results []commonModels.SearchResult) []string {
	seen := make(map[string]bool)
	sources := make([]string, 0, len(results))
	for _, r := range results {
		if seen[r.DocumentId] {
			continue
		}
		seen[r.DocumentId] = true
		sources = append(sources, r.DocumentId)
	}
	return sources
}
