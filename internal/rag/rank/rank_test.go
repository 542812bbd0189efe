package rank

import (
	"math"
	"testing"

	"github.com/doclens/doclens/internal/config"
	"github.com/doclens/doclens/internal/domain/commonModels"
)

func candidate(id, text string, vector []float32) commonModels.Candidate {
	return commonModels.Candidate{
		Chunk: commonModels.Chunk{
			Id:         id,
			DocumentId: "doc-" + id,
			Text:       text,
		},
		DocumentTitle: "title-" + id,
		Vector:        vector,
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical unit vectors", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero norm left", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "zero norm right", a: []float32{1, 1}, b: []float32{0, 0}, want: 0},
		{name: "dimension mismatch", a: []float32{1, 1}, b: []float32{1, 1, 1}, want: 0},
		{name: "both empty", a: nil, b: nil, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCosineSimilaritySymmetryAndSelf(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	b := []float32{2.2, 0.4, -0.9, 1.5}

	if got, want := CosineSimilarity(a, b), CosineSimilarity(b, a); math.Abs(got-want) > 1e-12 {
		t.Errorf("similarity is not symmetric: %v vs %v", got, want)
	}
	if got := CosineSimilarity(a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("self similarity = %v, want 1", got)
	}
}

func TestLexicalOverlap(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{name: "verbatim query", query: "refund policy", text: "Our refund policy lasts 30 days.", want: 1},
		{name: "case folded verbatim", query: "Refund Policy", text: "the REFUND POLICY applies", want: 1},
		{name: "partial terms", query: "refund policy window", text: "policy text about a refund", want: 2.0 / 3.0},
		{name: "no terms match", query: "vacation days", text: "completely unrelated text", want: 0},
		{name: "empty query", query: "   ", text: "anything", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LexicalOverlap(tc.query, tc.text)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("LexicalOverlap() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRankLiteralMatchBeatsIdenticalEmbedding(t *testing.T) {
	queryVector := []float32{1, 0, 0}
	candidates := []commonModels.Candidate{
		candidate("a", "text that paraphrases the idea", queryVector),
		candidate("b", "text containing the refund policy verbatim", queryVector),
	}

	results := Rank("refund policy", queryVector, candidates, 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Chunk.Id != "b" {
		t.Errorf("literal-substring chunk ranked %q first, want b", results[0].Chunk.Id)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("literal match score %v not strictly above %v", results[0].Score, results[1].Score)
	}
}

func TestRankFloorAndOrder(t *testing.T) {
	queryVector := []float32{1, 0}
	candidates := []commonModels.Candidate{
		candidate("strong", "unrelated words", []float32{1, 0}),            // 0.75
		candidate("weak", "unrelated words", []float32{0.2, 1}),            // below floor
		candidate("zero", "unrelated words", []float32{0, 0}),              // 0
		candidate("lexical", "holds the question text", []float32{0.2, 1}), // lexical lift
	}

	results := Rank("question text", queryVector, candidates, 10)
	for _, r := range results {
		if r.Score < config.RelevanceFloor {
			t.Errorf("result %q score %v is below the floor", r.Chunk.Id, r.Score)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
	for _, r := range results {
		if r.Chunk.Id == "weak" || r.Chunk.Id == "zero" {
			t.Errorf("sub-floor candidate %q survived", r.Chunk.Id)
		}
	}
	if len(results) == 0 || results[0].Chunk.Id != "strong" {
		t.Fatalf("got %+v, want strong ranked first", results)
	}
}

func TestRankStableOnTies(t *testing.T) {
	queryVector := []float32{1, 0}
	candidates := []commonModels.Candidate{
		candidate("first", "same text", queryVector),
		candidate("second", "same text", queryVector),
		candidate("third", "same text", queryVector),
	}

	results := Rank("nomatch", queryVector, candidates, 10)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, id := range []string{"first", "second", "third"} {
		if results[i].Chunk.Id != id {
			t.Errorf("position %d = %q, want %q", i, results[i].Chunk.Id, id)
		}
	}
}

func TestRankTruncatesToTopK(t *testing.T) {
	queryVector := []float32{1, 0}
	var candidates []commonModels.Candidate
	for i := 0; i < 30; i++ {
		candidates = append(candidates, candidate(string(rune('a'+i)), "txt", queryVector))
	}

	if got := len(Rank("q", queryVector, candidates, 3)); got != 3 {
		t.Errorf("topK 3 returned %d results", got)
	}
	// oversized and negative topK clamp to the window edges
	if got := len(Rank("q", queryVector, candidates, 500)); got != config.MaxTopK {
		t.Errorf("topK 500 returned %d results, want %d", got, config.MaxTopK)
	}
	if got := len(Rank("q", queryVector, candidates, -4)); got != config.MinTopK {
		t.Errorf("topK -4 returned %d results, want %d", got, config.MinTopK)
	}
	if got := len(Rank("q", queryVector, candidates, 0)); got != config.DefaultTopK {
		t.Errorf("topK 0 returned %d results, want %d", got, config.DefaultTopK)
	}
}

func TestClampTopK(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: config.DefaultTopK},
		{in: -1, want: config.MinTopK},
		{in: 1, want: 1},
		{in: 20, want: 20},
		{in: 21, want: config.MaxTopK},
	}
	for _, tc := range tests {
		if got := ClampTopK(tc.in); got != tc.want {
			t.Errorf("ClampTopK(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
