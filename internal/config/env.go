package config

import "os"

// Secrets and deployment-specific values come from the environment so the
// constants above stay committable.
var (
	GeminiAPIKey       = os.Getenv("GEMINI_API_KEY")
	OpenAIAPIKey       = os.Getenv("OPENAI_API_KEY")
	EmbeddingsProvider = getenv("EMBEDDINGS_PROVIDER", "google")
	AuthToken          = os.Getenv("AUTH_TOKEN")
	RedisPassword      = os.Getenv("REDIS_PASSWORD")
	NoAuthBypass       = os.Getenv("AUTH_BYPASS") == "1"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
