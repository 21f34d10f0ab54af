// Package mock provides test double implementations of AI service interfaces.
//
// The mocks let tests run without an embedding server and give controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder hashes every rune of the text into a fixed number of buckets
// and returns the normalized histogram, so identical texts embed to identical
// unit vectors and texts sharing characters have positive similarity.
package mock
