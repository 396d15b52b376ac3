// Package mock provides a test double for ai.Embedder.
//
// MockEmbedder returns deterministic unit vectors derived from a hash of the
// text, so the same text always embeds to the same vector. Behavior can be
// replaced per test through EmbedTextFunc and EmbedTextsFunc.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{1, 0, 0}, nil
//	}
//	count := embedder.CallCount()
package mock
