package cache

import "strings"

const (
	GlobalKeyPrefix = "quizfunnel"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// QuizDefinitionKey is the key of a published definition cached per owner namespace.
func QuizDefinitionKey(ownerID, slug string) string {
	return GenerateCacheKey("quiz", "definition", ownerID, slug)
}

// QuizListKey is the key of an owner's cached published-quiz listing.
func QuizListKey(ownerID string) string {
	return GenerateCacheKey("quiz", "list", ownerID)
}
